package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// Migrate creates the checkout tables and indexes
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	logger.Info("Running GORM auto-migrations...")
	err := db.AutoMigrate(
		&model.PaymentMethod{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.Notification{},
	)
	if err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return err
	}

	if err := createCustomIndexes(db); err != nil {
		logger.Error("Failed to create custom indexes", zap.Error(err))
		return err
	}

	logger.Info("Database migrations completed successfully")
	return nil
}

// createCustomIndexes creates indexes GORM tags cannot express. The partial
// unique index guarantees at most one active default method per user.
func createCustomIndexes(db *gorm.DB) error {
	statements := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS unique_default_payment_method_per_user ON payment_methods (user_id) WHERE is_default AND is_active`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions (user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id, created_at) WHERE is_read = false`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
