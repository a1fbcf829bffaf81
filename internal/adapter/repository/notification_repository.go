package repository

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	domainRepo "github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

type notificationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewNotificationRepository(db *gorm.DB, logger *zap.Logger) domainRepo.NotificationRepository {
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		r.logger.Error("failed to create notification",
			zap.String("user_id", n.UserID),
			zap.Error(err))
		return domainerrors.NewStorageError("create notification", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []*model.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		r.logger.Error("failed to list notifications",
			zap.String("user_id", userID),
			zap.Error(err))
		return nil, domainerrors.NewStorageError("list notifications", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	if result.Error != nil {
		r.logger.Error("failed to mark notification read",
			zap.String("notification_id", id),
			zap.Error(result.Error))
		return domainerrors.NewStorageError("mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotificationNotFound
	}
	return nil
}
