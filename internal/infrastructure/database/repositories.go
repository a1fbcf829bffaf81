package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wekeepgrowing/agrimarket/internal/adapter/repository"
	domainRepo "github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

// Repositories holds all repository instances
type Repositories struct {
	PaymentMethod domainRepo.PaymentMethodRepository
	Transaction   domainRepo.TransactionRepository
	Notification  domainRepo.NotificationRepository
}

// NewRepositories creates new repository instances with database connection
func NewRepositories(db *gorm.DB, logger *zap.Logger) *Repositories {
	return &Repositories{
		PaymentMethod: repository.NewPaymentMethodRepository(db, logger),
		Transaction:   repository.NewTransactionRepository(db, logger),
		Notification:  repository.NewNotificationRepository(db, logger),
	}
}
