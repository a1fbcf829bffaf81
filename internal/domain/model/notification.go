package model

import "time"

// Notification is a persisted inbox entry for a user.
type Notification struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	UserID        string     `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	Subject       string     `gorm:"column:subject;size:200;not null" json:"subject"`
	Body          string     `gorm:"column:body;type:text" json:"body"`
	TransactionID *string    `gorm:"column:transaction_id;size:36" json:"transaction_id,omitempty"`
	IsRead        bool       `gorm:"column:is_read;not null;default:false" json:"is_read"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null;index" json:"created_at"`
	ReadAt        *time.Time `gorm:"column:read_at" json:"read_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Notification) TableName() string {
	return "notifications"
}
