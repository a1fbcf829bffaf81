package gateway

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
)

// MessageInvalidMethod is returned when the method lacks fields the
// provider needs.
const MessageInvalidMethod = "invalid payment method for provider"

func invalidMethod() *gateway.PaymentResult {
	return &gateway.PaymentResult{Success: false, Message: MessageInvalidMethod, MethodRejected: true}
}

// Options are shared by the simulated providers.
type Options struct {
	Decider              gateway.Decider
	LargeAmountThreshold decimal.Decimal
	LargeAmountFactor    float64
	MinLatency           time.Duration
	MaxLatency           time.Duration
	Seed                 int64
	Logger               *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Decider == nil {
		o.Decider = NewProbabilisticDecider(o.Seed)
	}
	if o.LargeAmountThreshold.IsZero() {
		o.LargeAmountThreshold = decimal.NewFromInt(10000)
	}
	if o.LargeAmountFactor == 0 {
		o.LargeAmountFactor = 0.8
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// simulated holds the flow common to every provider: validate the method,
// wait a simulated network latency, ask the decider, build the result.
type simulated struct {
	name    gateway.ProviderType
	prefix  string
	decline string
	opts    Options

	mu  sync.Mutex
	rng *rand.Rand
}

func newSimulated(name gateway.ProviderType, prefix, decline string, opts Options) *simulated {
	opts = opts.withDefaults()
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &simulated{
		name:    name,
		prefix:  prefix,
		decline: decline,
		opts:    opts,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (s *simulated) Name() string {
	return string(s.name)
}

// rate applies the large amount penalty to base.
func (s *simulated) rate(base float64, amount decimal.Decimal) float64 {
	if amount.GreaterThan(s.opts.LargeAmountThreshold) {
		return base * s.opts.LargeAmountFactor
	}
	return base
}

func (s *simulated) latency() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := s.opts.MinLatency, s.opts.MaxLatency
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int63n(int64(hi-lo)))
}

func (s *simulated) authorize(ctx context.Context, req *gateway.AuthorizeRequest, base float64, valid bool) (*gateway.PaymentResult, error) {
	if req == nil || req.PaymentMethod == nil || !valid {
		return invalidMethod(), nil
	}

	if d := s.latency(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	rate := s.rate(base, req.Amount)
	decision, err := s.opts.Decider.Decide(ctx, req, rate)
	if err != nil {
		return nil, err
	}

	if !decision.Approved {
		msg := decision.Message
		if msg == "" {
			msg = s.decline
		}
		s.opts.Logger.Info("Authorization declined",
			zap.String("provider", s.Name()),
			zap.String("transaction_id", req.TransactionID),
			zap.String("reason", msg))
		return &gateway.PaymentResult{Success: false, Message: msg, MethodRejected: decision.MethodRejected}, nil
	}

	id := s.prefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
	msg := decision.Message
	if msg == "" {
		msg = "payment approved"
	}
	s.opts.Logger.Info("Authorization approved",
		zap.String("provider", s.Name()),
		zap.String("transaction_id", req.TransactionID),
		zap.String("provider_transaction_id", id))
	return &gateway.PaymentResult{
		Success:           true,
		TransactionID:     id,
		ProviderReference: id,
		Message:           msg,
	}, nil
}

func hasText(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// SuccessRates are the base approval probabilities per provider family.
type SuccessRates struct {
	Card   float64
	Wallet float64
	Bank   float64
}

func (r SuccessRates) withDefaults() SuccessRates {
	if r.Card == 0 {
		r.Card = 0.92
	}
	if r.Wallet == 0 {
		r.Wallet = 0.96
	}
	if r.Bank == 0 {
		r.Bank = 0.88
	}
	return r
}
