package gateway

import (
	"context"
	"sync"

	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
)

// MockCall is one recorded Authorize invocation.
type MockCall struct {
	Request gateway.AuthorizeRequest
}

// MockResponse scripts one Authorize answer. Block, when set, is waited
// on (or the context) before answering.
type MockResponse struct {
	Result *gateway.PaymentResult
	Err    error
	Panic  interface{}
	Block  <-chan struct{}
}

// MockGateway replays scripted responses and records every call. Once the
// script runs out the last response is repeated; an empty script approves.
type MockGateway struct {
	mu        sync.Mutex
	responses []MockResponse
	calls     []MockCall
}

func NewMockGateway(responses ...MockResponse) *MockGateway {
	return &MockGateway{responses: responses}
}

func (m *MockGateway) Name() string {
	return string(gateway.ProviderTypeMock)
}

func (m *MockGateway) Authorize(ctx context.Context, req *gateway.AuthorizeRequest) (*gateway.PaymentResult, error) {
	m.mu.Lock()
	var call MockCall
	if req != nil {
		call.Request = *req
	}
	idx := len(m.calls)
	m.calls = append(m.calls, call)
	var resp MockResponse
	switch {
	case len(m.responses) == 0:
		resp = MockResponse{Result: &gateway.PaymentResult{
			Success:           true,
			TransactionID:     "mock_txn",
			ProviderReference: "mock_ref",
			Message:           "payment approved",
		}}
	case idx < len(m.responses):
		resp = m.responses[idx]
	default:
		resp = m.responses[len(m.responses)-1]
	}
	m.mu.Unlock()

	if resp.Block != nil {
		select {
		case <-resp.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if resp.Panic != nil {
		panic(resp.Panic)
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	out := *resp.Result
	return &out, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockGateway) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns how many times Authorize ran.
func (m *MockGateway) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Approved scripts a successful authorization.
func Approved(id string) MockResponse {
	return MockResponse{Result: &gateway.PaymentResult{
		Success:           true,
		TransactionID:     id,
		ProviderReference: id,
		Message:           "payment approved",
	}}
}

// RejectedMethod scripts a refusal of the payment method itself.
func RejectedMethod(message string) MockResponse {
	return MockResponse{Result: &gateway.PaymentResult{Success: false, Message: message, MethodRejected: true}}
}

// Declined scripts a declined authorization.
func Declined(message string) MockResponse {
	return MockResponse{Result: &gateway.PaymentResult{Success: false, Message: message}}
}
