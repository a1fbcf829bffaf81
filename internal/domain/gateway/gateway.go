package gateway

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// PaymentGateway authorizes a charge against one provider.
//
// A non-nil error means the call itself failed (timeout, malformed
// response). A declined charge is reported as a result with Success=false.
type PaymentGateway interface {
	Authorize(ctx context.Context, req *AuthorizeRequest) (*PaymentResult, error)

	// Name returns the provider name
	Name() string
}

// AuthorizeRequest is the provider-agnostic authorization input
type AuthorizeRequest struct {
	TransactionID string                 `json:"transaction_id"`
	PaymentMethod *model.PaymentMethod   `json:"payment_method"`
	Amount        decimal.Decimal        `json:"amount"`
	Currency      string                 `json:"currency"`
	Description   string                 `json:"description"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	// Attempt is 0 for the first authorization and counts retries after that.
	Attempt int `json:"attempt"`
}

// PaymentResult is the provider's answer
type PaymentResult struct {
	Success           bool   `json:"success"`
	TransactionID     string `json:"transaction_id,omitempty"`
	ProviderReference string `json:"provider_reference,omitempty"`
	Message           string `json:"message"`
	// MethodRejected marks a refusal of the payment method itself.
	// Retrying with the same method cannot succeed.
	MethodRejected bool `json:"method_rejected,omitempty"`
}

// Decision is the outcome a Decider picks for one authorization.
type Decision struct {
	Approved       bool
	Message        string
	MethodRejected bool
}

// Decider chooses the outcome of an authorization. successRate is the
// provider's adjusted probability of approval.
type Decider interface {
	Decide(ctx context.Context, req *AuthorizeRequest, successRate float64) (Decision, error)
}

// DecisionFunc adapts a function to Decider
type DecisionFunc func(ctx context.Context, req *AuthorizeRequest, successRate float64) (Decision, error)

func (f DecisionFunc) Decide(ctx context.Context, req *AuthorizeRequest, successRate float64) (Decision, error) {
	return f(ctx, req, successRate)
}

// Registry resolves the gateway for a payment method type
type Registry interface {
	For(t model.PaymentMethodType) (PaymentGateway, bool)
}

// ProviderType names a provider variant
type ProviderType string

const (
	ProviderTypeStripe         ProviderType = "stripe"
	ProviderTypePayPal         ProviderType = "paypal"
	ProviderTypeBankTransfer   ProviderType = "bank_transfer"
	ProviderTypeCashOnDelivery ProviderType = "cash_on_delivery"
	ProviderTypeMock           ProviderType = "mock"
)

// ProviderError is returned when a provider call fails outright
type ProviderError struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Details  string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Provider + ": " + e.Message + ": " + e.Details
	}
	return e.Provider + ": " + e.Message
}
