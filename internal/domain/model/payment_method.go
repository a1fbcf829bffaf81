package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// PaymentMethodType identifies how a buyer pays.
type PaymentMethodType string

const (
	PaymentMethodCreditCard     PaymentMethodType = "CREDIT_CARD"
	PaymentMethodDebitCard      PaymentMethodType = "DEBIT_CARD"
	PaymentMethodPayPal         PaymentMethodType = "PAYPAL"
	PaymentMethodApplePay       PaymentMethodType = "APPLE_PAY"
	PaymentMethodGooglePay      PaymentMethodType = "GOOGLE_PAY"
	PaymentMethodBankTransfer   PaymentMethodType = "BANK_TRANSFER"
	PaymentMethodCashOnDelivery PaymentMethodType = "CASH_ON_DELIVERY"
)

// PaymentMethodTypes lists every supported type.
var PaymentMethodTypes = []PaymentMethodType{
	PaymentMethodCreditCard,
	PaymentMethodDebitCard,
	PaymentMethodPayPal,
	PaymentMethodApplePay,
	PaymentMethodGooglePay,
	PaymentMethodBankTransfer,
	PaymentMethodCashOnDelivery,
}

func (t PaymentMethodType) Valid() bool {
	for _, v := range PaymentMethodTypes {
		if v == t {
			return true
		}
	}
	return false
}

func (t PaymentMethodType) IsCard() bool {
	return t == PaymentMethodCreditCard || t == PaymentMethodDebitCard
}

func (t PaymentMethodType) IsDigitalWallet() bool {
	return t == PaymentMethodApplePay || t == PaymentMethodGooglePay || t == PaymentMethodPayPal
}

// Scan implements sql.Scanner interface
func (t *PaymentMethodType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = PaymentMethodType(v)
	case []byte:
		*t = PaymentMethodType(v)
	default:
		return fmt.Errorf("cannot scan %T into PaymentMethodType", src)
	}
	return nil
}

// Value implements driver.Valuer interface
func (t PaymentMethodType) Value() (driver.Value, error) {
	return string(t), nil
}

// PaymentMethod is a saved, display-safe payment instrument. Raw card and
// account numbers only ever live inside EncryptedData.
type PaymentMethod struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	UserID      string            `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	Type        PaymentMethodType `gorm:"column:type;size:32;not null" json:"type"`
	DisplayName string            `gorm:"column:display_name;size:120" json:"display_name"`
	IsDefault   bool              `gorm:"column:is_default;not null;default:false" json:"is_default"`
	IsActive    bool              `gorm:"column:is_active;not null" json:"is_active"`

	// Card
	CardHolderName   string `gorm:"column:card_holder_name;size:120" json:"card_holder_name,omitempty"`
	MaskedCardNumber string `gorm:"column:masked_card_number;size:32" json:"masked_card_number,omitempty"`
	CardBrand        string `gorm:"column:card_brand;size:32" json:"card_brand,omitempty"`
	ExpiryMonth      int    `gorm:"column:expiry_month" json:"expiry_month,omitempty"`
	ExpiryYear       int    `gorm:"column:expiry_year" json:"expiry_year,omitempty"`

	// Digital wallet
	WalletProvider  string `gorm:"column:wallet_provider;size:32" json:"wallet_provider,omitempty"`
	WalletAccountID string `gorm:"column:wallet_account_id;size:120" json:"wallet_account_id,omitempty"`

	// Bank transfer
	BankName            string `gorm:"column:bank_name;size:120" json:"bank_name,omitempty"`
	AccountHolderName   string `gorm:"column:account_holder_name;size:120" json:"account_holder_name,omitempty"`
	MaskedAccountNumber string `gorm:"column:masked_account_number;size:32" json:"masked_account_number,omitempty"`

	EncryptedData string `gorm:"column:encrypted_data;type:text" json:"-"`
	EncryptionIV  string `gorm:"column:encryption_iv;type:text" json:"-"`

	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	LastUpdated time.Time  `gorm:"column:last_updated;not null" json:"last_updated"`
	LastUsed    *time.Time `gorm:"column:last_used" json:"last_used,omitempty"`
}

// TableName specifies the table name for GORM
func (PaymentMethod) TableName() string {
	return "payment_methods"
}

// IsExpired reports whether a card is past the last day of its expiry
// month. Non-card methods never expire.
func (p *PaymentMethod) IsExpired(now time.Time) bool {
	if !p.Type.IsCard() {
		return false
	}
	if p.ExpiryYear == 0 || p.ExpiryMonth < 1 || p.ExpiryMonth > 12 {
		return true
	}
	// First instant of the month after expiry, in the caller's zone.
	end := time.Date(p.ExpiryYear, time.Month(p.ExpiryMonth)+1, 1, 0, 0, 0, 0, now.Location())
	return !now.Before(end)
}

// Usable reports whether the method may be charged at now.
func (p *PaymentMethod) Usable(now time.Time) bool {
	return p.IsActive && !p.IsExpired(now)
}

// MarkUsed stamps the method after a completed authorization.
func (p *PaymentMethod) MarkUsed(at time.Time) {
	p.LastUsed = &at
	p.LastUpdated = at
}
