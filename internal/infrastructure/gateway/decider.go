package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
)

// ProbabilisticDecider approves with the given success rate using a
// seeded source, so runs are reproducible when the seed is fixed.
type ProbabilisticDecider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewProbabilisticDecider creates a decider. A zero seed uses the clock.
func NewProbabilisticDecider(seed int64) *ProbabilisticDecider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ProbabilisticDecider{rng: rand.New(rand.NewSource(seed))}
}

func (d *ProbabilisticDecider) Decide(_ context.Context, _ *gateway.AuthorizeRequest, successRate float64) (gateway.Decision, error) {
	d.mu.Lock()
	roll := d.rng.Float64()
	d.mu.Unlock()
	return gateway.Decision{Approved: roll < successRate}, nil
}

// Approve always approves.
var Approve = gateway.DecisionFunc(func(context.Context, *gateway.AuthorizeRequest, float64) (gateway.Decision, error) {
	return gateway.Decision{Approved: true}, nil
})

// Decline always declines with message.
func Decline(message string) gateway.Decider {
	return gateway.DecisionFunc(func(context.Context, *gateway.AuthorizeRequest, float64) (gateway.Decision, error) {
		return gateway.Decision{Approved: false, Message: message}, nil
	})
}

// Sequence replays decisions in order and repeats the last one.
func Sequence(decisions ...gateway.Decision) gateway.Decider {
	var (
		mu   sync.Mutex
		next int
	)
	return gateway.DecisionFunc(func(context.Context, *gateway.AuthorizeRequest, float64) (gateway.Decision, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(decisions) == 0 {
			return gateway.Decision{Approved: true}, nil
		}
		d := decisions[next]
		if next < len(decisions)-1 {
			next++
		}
		return d, nil
	})
}
