package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/crypto"
)

// paymentIntents is the part of the Stripe client the decider needs.
type paymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeDecider confirms a Stripe PaymentIntent with the method's sealed
// provider token instead of rolling a probability.
type StripeDecider struct {
	intents paymentIntents
	cipher  crypto.SecretCipher
	logger  *zap.Logger
}

func NewStripeDecider(secretKey string, cipher crypto.SecretCipher, logger *zap.Logger) *StripeDecider {
	sc := client.New(secretKey, nil)
	return newStripeDecider(sc.PaymentIntents, cipher, logger)
}

func newStripeDecider(intents paymentIntents, cipher crypto.SecretCipher, logger *zap.Logger) *StripeDecider {
	return &StripeDecider{intents: intents, cipher: cipher, logger: logger}
}

func (d *StripeDecider) Decide(ctx context.Context, req *gateway.AuthorizeRequest, _ float64) (gateway.Decision, error) {
	token, err := crypto.OpenPaymentSecret(d.cipher, req.PaymentMethod)
	if err != nil {
		return gateway.Decision{}, err
	}
	if !strings.HasPrefix(token, "pm_") {
		return gateway.Decision{Approved: false, Message: "payment method is not tokenized for stripe", MethodRejected: true}, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(toMinorUnits(req.Amount)),
		Currency:           stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod:      stripe.String(token),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Confirm:            stripe.Bool(true),
		Description:        stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("transaction_id", req.TransactionID)
	// A reused key replays the earlier response, so every retry needs its own.
	params.SetIdempotencyKey(fmt.Sprintf("%s-%s-%d", req.TransactionID, req.PaymentMethod.ID, req.Attempt))

	pi, err := d.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			d.logger.Info("Stripe declined card",
				zap.String("transaction_id", req.TransactionID),
				zap.String("decline_code", string(stripeErr.DeclineCode)))
			return gateway.Decision{Approved: false, Message: stripeErr.Msg}, nil
		}
		return gateway.Decision{}, &gateway.ProviderError{
			Provider: string(gateway.ProviderTypeStripe),
			Code:     "PAYMENT_INTENT_FAILED",
			Message:  "failed to confirm payment intent",
			Details:  err.Error(),
		}
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded, stripe.PaymentIntentStatusRequiresCapture:
		return gateway.Decision{Approved: true, Message: "payment approved (" + pi.ID + ")"}, nil
	default:
		return gateway.Decision{Approved: false, Message: "payment intent " + string(pi.Status)}, nil
	}
}

func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
