package gateway

import (
	"context"

	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// CardGateway is the stripe-like processor for cards and the Apple/Google
// Pay wallets.
type CardGateway struct {
	*simulated
	rates SuccessRates
}

func NewCardGateway(rates SuccessRates, opts Options) *CardGateway {
	return &CardGateway{
		simulated: newSimulated(gateway.ProviderTypeStripe, "ch_", "card declined", opts),
		rates:     rates.withDefaults(),
	}
}

func (g *CardGateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.PaymentResult, error) {
	var (
		base  float64
		valid bool
	)
	if req != nil && req.PaymentMethod != nil {
		pm := req.PaymentMethod
		switch {
		case pm.Type.IsCard():
			base = g.rates.Card
			valid = hasText(pm.MaskedCardNumber) && pm.ExpiryMonth >= 1 && pm.ExpiryMonth <= 12 && pm.ExpiryYear > 0
		case pm.Type == model.PaymentMethodApplePay || pm.Type == model.PaymentMethodGooglePay:
			base = g.rates.Wallet
			valid = hasText(pm.WalletAccountID)
		}
	}
	return g.authorize(ctx, req, base, valid)
}

// PayPalGateway authorizes PayPal wallet payments.
type PayPalGateway struct {
	*simulated
	rate float64
}

func NewPayPalGateway(rates SuccessRates, opts Options) *PayPalGateway {
	return &PayPalGateway{
		simulated: newSimulated(gateway.ProviderTypePayPal, "PAYID-", "PayPal payment declined", opts),
		rate:      rates.withDefaults().Wallet,
	}
}

func (g *PayPalGateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.PaymentResult, error) {
	valid := req != nil && req.PaymentMethod != nil &&
		req.PaymentMethod.Type == model.PaymentMethodPayPal &&
		hasText(req.PaymentMethod.WalletAccountID)
	return g.authorize(ctx, req, g.rate, valid)
}

// BankTransferGateway authorizes direct bank transfers.
type BankTransferGateway struct {
	*simulated
	rate float64
}

func NewBankTransferGateway(rates SuccessRates, opts Options) *BankTransferGateway {
	return &BankTransferGateway{
		simulated: newSimulated(gateway.ProviderTypeBankTransfer, "BT", "bank transfer rejected", opts),
		rate:      rates.withDefaults().Bank,
	}
}

func (g *BankTransferGateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.PaymentResult, error) {
	valid := req != nil && req.PaymentMethod != nil &&
		req.PaymentMethod.Type == model.PaymentMethodBankTransfer &&
		hasText(req.PaymentMethod.BankName, req.PaymentMethod.MaskedAccountNumber)
	return g.authorize(ctx, req, g.rate, valid)
}

// CashOnDeliveryGateway records a collect-on-delivery promise. It never
// contacts a provider and always succeeds.
type CashOnDeliveryGateway struct{}

func NewCashOnDeliveryGateway() *CashOnDeliveryGateway {
	return &CashOnDeliveryGateway{}
}

func (g *CashOnDeliveryGateway) Name() string {
	return string(gateway.ProviderTypeCashOnDelivery)
}

func (g *CashOnDeliveryGateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.PaymentResult, error) {
	if req == nil || req.PaymentMethod == nil || req.PaymentMethod.Type != model.PaymentMethodCashOnDelivery {
		return invalidMethod(), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref := "COD-" + req.TransactionID
	return &gateway.PaymentResult{
		Success:           true,
		TransactionID:     ref,
		ProviderReference: ref,
		Message:           "payment due on delivery",
	}, nil
}
