package repository

import (
	"context"
	"time"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// NotificationRepository stores the per-user notification inbox
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, id string, at time.Time) error
}
