package gateway

import (
	"github.com/wekeepgrowing/agrimarket/internal/config"
	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"go.uber.org/zap"
)

// Registry maps each payment method type to its provider. It is built once
// and read-only afterwards.
type Registry struct {
	gateways map[model.PaymentMethodType]gateway.PaymentGateway
}

// NewRegistry builds a registry from explicit bindings.
func NewRegistry(bindings map[model.PaymentMethodType]gateway.PaymentGateway) *Registry {
	gateways := make(map[model.PaymentMethodType]gateway.PaymentGateway, len(bindings))
	for t, g := range bindings {
		gateways[t] = g
	}
	return &Registry{gateways: gateways}
}

// NewDefaultRegistry wires the simulated providers from configuration.
// A non-nil cardDecider replaces the probabilistic decision for cards.
func NewDefaultRegistry(cfg config.GatewayConfig, cardDecider gateway.Decider, logger *zap.Logger) *Registry {
	rates := SuccessRates{
		Card:   cfg.CardSuccessRate,
		Wallet: cfg.WalletSuccessRate,
		Bank:   cfg.BankSuccessRate,
	}
	opts := Options{
		LargeAmountThreshold: cfg.LargeAmountThreshold,
		LargeAmountFactor:    cfg.LargeAmountFactor,
		MinLatency:           cfg.MinLatency,
		MaxLatency:           cfg.MaxLatency,
		Seed:                 cfg.Seed,
		Logger:               logger,
	}

	cardOpts := opts
	cardOpts.Decider = cardDecider
	card := NewCardGateway(rates, cardOpts)

	return NewRegistry(map[model.PaymentMethodType]gateway.PaymentGateway{
		model.PaymentMethodCreditCard:     card,
		model.PaymentMethodDebitCard:      card,
		model.PaymentMethodApplePay:       card,
		model.PaymentMethodGooglePay:      card,
		model.PaymentMethodPayPal:         NewPayPalGateway(rates, opts),
		model.PaymentMethodBankTransfer:   NewBankTransferGateway(rates, opts),
		model.PaymentMethodCashOnDelivery: NewCashOnDeliveryGateway(),
	})
}

// Uniform binds every payment method type to g. Used in tests and demos.
func Uniform(g gateway.PaymentGateway) *Registry {
	bindings := make(map[model.PaymentMethodType]gateway.PaymentGateway, len(model.PaymentMethodTypes))
	for _, t := range model.PaymentMethodTypes {
		bindings[t] = g
	}
	return NewRegistry(bindings)
}

func (r *Registry) For(t model.PaymentMethodType) (gateway.PaymentGateway, bool) {
	g, ok := r.gateways[t]
	return g, ok
}
