package repository

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

type paymentMethodRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewPaymentMethodRepository(db *gorm.DB, logger *zap.Logger) domainRepo.PaymentMethodRepository {
	return &paymentMethodRepository{db: db, logger: logger}
}

func (r *paymentMethodRepository) Save(ctx context.Context, pm *model.PaymentMethod) error {
	if err := r.db.WithContext(ctx).Save(pm).Error; err != nil {
		r.logger.Error("failed to save payment method",
			zap.String("payment_method_id", pm.ID),
			zap.String("user_id", pm.UserID),
			zap.Error(err))
		return domainerrors.NewStorageError("save payment method", err)
	}
	return nil
}

func (r *paymentMethodRepository) FindByUser(ctx context.Context, userID string) ([]*model.PaymentMethod, error) {
	var methods []*model.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("is_default DESC").
		Order("last_used IS NULL").
		Order("last_used DESC").
		Order("created_at DESC").
		Find(&methods).Error
	if err != nil {
		r.logger.Error("failed to list payment methods",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domainerrors.NewStorageError("list payment methods", err)
	}
	return methods, nil
}

func (r *paymentMethodRepository) FindByID(ctx context.Context, id string) (*model.PaymentMethod, error) {
	var pm model.PaymentMethod
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&pm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("failed to get payment method by id",
			zap.String("payment_method_id", id),
			zap.Error(err))
		return nil, domainerrors.NewStorageError("get payment method", err)
	}
	return &pm, nil
}

// lockUserMethods locks every payment method row of userID until tx ends.
// Concurrent default changes for the same user queue here, so each one
// sees the previous writer's default.
func lockUserMethods(tx *gorm.DB, userID string) ([]model.PaymentMethod, error) {
	var owned []model.PaymentMethod
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "is_active", "is_default").
		Where("user_id = ?", userID).
		Order("id").
		Find(&owned).Error
	return owned, err
}

func activeMethod(owned []model.PaymentMethod, id string) bool {
	for _, pm := range owned {
		if pm.ID == id && pm.IsActive {
			return true
		}
	}
	return false
}

func (r *paymentMethodRepository) SetDefault(ctx context.Context, userID, id string) error {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := lockUserMethods(tx, userID)
		if err != nil {
			return err
		}
		if !activeMethod(owned, id) {
			return domainerrors.ErrPaymentMethodNotFound
		}

		// Clear first so the partial unique index never sees two defaults.
		if err := tx.Model(&model.PaymentMethod{}).
			Where("user_id = ? AND is_default = ? AND id <> ?", userID, true, id).
			Updates(map[string]interface{}{"is_default": false, "last_updated": now}).Error; err != nil {
			return err
		}

		return tx.Model(&model.PaymentMethod{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_default": true, "last_updated": now}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPaymentMethodNotFound) {
			return err
		}
		r.logger.Error("failed to set default payment method",
			zap.String("user_id", userID),
			zap.String("payment_method_id", id),
			zap.Error(err))
		return domainerrors.NewStorageError("set default payment method", err)
	}
	return nil
}

func (r *paymentMethodRepository) ClaimDefault(ctx context.Context, userID, id string) (bool, error) {
	claimed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned, err := lockUserMethods(tx, userID)
		if err != nil {
			return err
		}
		if !activeMethod(owned, id) {
			return domainerrors.ErrPaymentMethodNotFound
		}
		for _, pm := range owned {
			if pm.IsActive && pm.IsDefault {
				return nil
			}
		}

		claimed = true
		return tx.Model(&model.PaymentMethod{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{"is_default": true, "last_updated": time.Now().UTC()}).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPaymentMethodNotFound) {
			return false, err
		}
		r.logger.Error("failed to claim default payment method",
			zap.String("user_id", userID),
			zap.String("payment_method_id", id),
			zap.Error(err))
		return false, domainerrors.NewStorageError("claim default payment method", err)
	}
	return claimed, nil
}

func (r *paymentMethodRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.PaymentMethod{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":    false,
			"is_default":   false,
			"last_updated": time.Now().UTC(),
		})
	if result.Error != nil {
		r.logger.Error("failed to delete payment method",
			zap.String("payment_method_id", id),
			zap.Error(result.Error))
		return domainerrors.NewStorageError("delete payment method", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPaymentMethodNotFound
	}
	return nil
}

func (r *paymentMethodRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.PaymentMethod{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_used":    at,
			"last_updated": at,
		})
	if result.Error != nil {
		r.logger.Error("failed to mark payment method used",
			zap.String("payment_method_id", id),
			zap.Error(result.Error))
		return domainerrors.NewStorageError("mark payment method used", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrPaymentMethodNotFound
	}
	return nil
}
