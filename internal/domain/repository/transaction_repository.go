package repository

import (
	"context"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// TransactionFilter narrows ListByUser results
type TransactionFilter struct {
	Status model.TransactionStatus
	Limit  int
	Offset int
}

// TransactionRepository persists transactions with their items
type TransactionRepository interface {
	Create(ctx context.Context, tx *model.Transaction) error
	// Update writes the transaction row in a single statement; items are immutable
	Update(ctx context.Context, tx *model.Transaction) error
	GetByID(ctx context.Context, id string) (*model.Transaction, error)
	ListByUser(ctx context.Context, userID string, filter TransactionFilter) ([]*model.Transaction, error)
}
