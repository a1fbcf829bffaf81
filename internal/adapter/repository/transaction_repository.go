package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

const defaultListLimit = 50

type transactionRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewTransactionRepository(db *gorm.DB, logger *zap.Logger) domainRepo.TransactionRepository {
	return &transactionRepository{db: db, logger: logger}
}

// Create inserts the transaction together with its items.
func (r *transactionRepository) Create(ctx context.Context, tx *model.Transaction) error {
	if err := r.db.WithContext(ctx).Create(tx).Error; err != nil {
		r.logger.Error("failed to create transaction",
			zap.String("transaction_id", tx.ID),
			zap.String("order_id", tx.OrderID),
			zap.Error(err))
		return domainerrors.NewStorageError("create transaction", err)
	}
	return nil
}

// Update rewrites the transaction row only; items are never touched.
func (r *transactionRepository) Update(ctx context.Context, tx *model.Transaction) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(tx)
	if result.Error != nil {
		r.logger.Error("failed to update transaction",
			zap.String("transaction_id", tx.ID),
			zap.String("status", string(tx.Status)),
			zap.Error(result.Error))
		return domainerrors.NewStorageError("update transaction", result.Error)
	}
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*model.Transaction, error) {
	var tx model.Transaction
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", id).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get transaction by id",
			zap.String("transaction_id", id),
			zap.Error(err))
		return nil, domainerrors.NewStorageError("get transaction", err)
	}
	return &tx, nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID string, filter domainRepo.TransactionFilter) ([]*model.Transaction, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("user_id = ?", userID)
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var txs []*model.Transaction
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&txs).Error
	if err != nil {
		r.logger.Error("failed to list transactions",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domainerrors.NewStorageError("list transactions", err)
	}
	return txs, nil
}
