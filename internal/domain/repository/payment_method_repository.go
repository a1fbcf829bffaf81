package repository

import (
	"context"
	"time"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// PaymentMethodRepository persists saved payment methods
type PaymentMethodRepository interface {
	// Save inserts or updates a payment method
	Save(ctx context.Context, pm *model.PaymentMethod) error

	// FindByUser returns active methods: default first, then most recently used, then newest
	FindByUser(ctx context.Context, userID string) ([]*model.PaymentMethod, error)

	// FindByID returns an active method, or nil when none exists
	FindByID(ctx context.Context, id string) (*model.PaymentMethod, error)

	// SetDefault clears the user's defaults and flags id in one transaction
	SetDefault(ctx context.Context, userID, id string) error

	// ClaimDefault flags id as default only when the user has no active
	// default yet, and reports whether it did
	ClaimDefault(ctx context.Context, userID, id string) (bool, error)

	// Delete soft-deletes a method and clears its default flag
	Delete(ctx context.Context, id string) error

	// MarkUsed stamps lastUsed and lastUpdated
	MarkUsed(ctx context.Context, id string, at time.Time) error
}
