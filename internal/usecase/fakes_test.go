package usecase_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

// memoryTransactionRepository keeps transactions in a map and stores copies.
type memoryTransactionRepository struct {
	mu      sync.Mutex
	txs     map[string]*model.Transaction
	updates int
}

func newMemoryTransactionRepository() *memoryTransactionRepository {
	return &memoryTransactionRepository{txs: make(map[string]*model.Transaction)}
}

func (r *memoryTransactionRepository) Create(_ context.Context, tx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = tx.Clone()
	return nil
}

func (r *memoryTransactionRepository) Update(_ context.Context, tx *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.txs[tx.ID] = tx.Clone()
	r.updates++
	return nil
}

func (r *memoryTransactionRepository) GetByID(_ context.Context, id string) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[id]
	if !ok {
		return nil, nil
	}
	return tx.Clone(), nil
}

func (r *memoryTransactionRepository) ListByUser(_ context.Context, userID string, filter repository.TransactionFilter) ([]*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Transaction
	for _, tx := range r.txs {
		if tx.UserID == userID && (filter.Status == "" || tx.Status == filter.Status) {
			out = append(out, tx.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryTransactionRepository) stored(id string) *model.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.txs[id].Clone()
}

// memoryPaymentMethodRepository mirrors the gorm repository semantics.
type memoryPaymentMethodRepository struct {
	mu      sync.Mutex
	methods map[string]*model.PaymentMethod
}

func newMemoryPaymentMethodRepository() *memoryPaymentMethodRepository {
	return &memoryPaymentMethodRepository{methods: make(map[string]*model.PaymentMethod)}
}

func (r *memoryPaymentMethodRepository) Save(_ context.Context, pm *model.PaymentMethod) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *pm
	r.methods[pm.ID] = &c
	return nil
}

func (r *memoryPaymentMethodRepository) FindByUser(_ context.Context, userID string) ([]*model.PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentMethod
	for _, pm := range r.methods {
		if pm.UserID == userID && pm.IsActive {
			c := *pm
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memoryPaymentMethodRepository) FindByID(_ context.Context, id string) (*model.PaymentMethod, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pm, ok := r.methods[id]
	if !ok || !pm.IsActive {
		return nil, nil
	}
	c := *pm
	return &c, nil
}

func (r *memoryPaymentMethodRepository) SetDefault(_ context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.methods[id]
	if !ok || !target.IsActive || target.UserID != userID {
		return domainerrors.ErrPaymentMethodNotFound
	}
	for _, pm := range r.methods {
		if pm.UserID == userID {
			pm.IsDefault = false
		}
	}
	target.IsDefault = true
	return nil
}

func (r *memoryPaymentMethodRepository) ClaimDefault(_ context.Context, userID, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.methods[id]
	if !ok || !target.IsActive || target.UserID != userID {
		return false, domainerrors.ErrPaymentMethodNotFound
	}
	for _, pm := range r.methods {
		if pm.UserID == userID && pm.IsActive && pm.IsDefault {
			return false, nil
		}
	}
	target.IsDefault = true
	return true, nil
}

func (r *memoryPaymentMethodRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pm, ok := r.methods[id]
	if !ok || !pm.IsActive {
		return domainerrors.ErrPaymentMethodNotFound
	}
	pm.IsActive = false
	pm.IsDefault = false
	return nil
}

func (r *memoryPaymentMethodRepository) MarkUsed(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pm, ok := r.methods[id]
	if !ok {
		return domainerrors.ErrPaymentMethodNotFound
	}
	pm.MarkUsed(at)
	return nil
}

func (r *memoryPaymentMethodRepository) stored(id string) *model.PaymentMethod {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *r.methods[id]
	return &c
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) Update(ctx context.Context, tx *model.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string, filter repository.TransactionFilter) ([]*model.Transaction, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Transaction), args.Error(1)
}

// recordingNotifier captures every notification it is asked to send.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

type sentNotification struct {
	UserID  string
	Subject string
	Body    string
}

func (n *recordingNotifier) Send(_ context.Context, userID, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Subject: subject, Body: body})
	return n.err
}

func (n *recordingNotifier) messages() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sent))
	copy(out, n.sent)
	return out
}
