package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
)

// TransactionType represents the kind of money movement.
type TransactionType string

const (
	TransactionTypePurchase   TransactionType = "PURCHASE"
	TransactionTypeRefund     TransactionType = "REFUND"
	TransactionTypeAdjustment TransactionType = "ADJUSTMENT"
)

// Scan implements sql.Scanner interface
func (t *TransactionType) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = TransactionType(v)
	case []byte:
		*t = TransactionType(v)
	default:
		return fmt.Errorf("cannot scan %T into TransactionType", src)
	}
	return nil
}

// Value implements driver.Valuer interface
func (t TransactionType) Value() (driver.Value, error) {
	return string(t), nil
}

// TransactionStatus is a state of the purchase state machine.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusRefunded   TransactionStatus = "REFUNDED"
)

// Scan implements sql.Scanner interface
func (s *TransactionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = TransactionStatus(v)
	case []byte:
		*s = TransactionStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into TransactionStatus", src)
	}
	return nil
}

// Value implements driver.Valuer interface
func (s TransactionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusRefunded:
		return true
	}
	return false
}

// transitions lists the allowed forward moves. FAILED -> PROCESSING is only
// reachable through a retry, which the engine guards with CanBeRetried.
var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:    {TransactionStatusProcessing, TransactionStatusFailed},
	TransactionStatusProcessing: {TransactionStatusCompleted, TransactionStatusFailed},
	TransactionStatusFailed:     {TransactionStatusProcessing},
	TransactionStatusCompleted:  {TransactionStatusRefunded},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// FailureCategory classifies why a transaction ended FAILED.
type FailureCategory string

const (
	FailureCategoryValidation    FailureCategory = "VALIDATION"
	FailureCategoryPaymentMethod FailureCategory = "PAYMENT_METHOD"
	FailureCategoryGateway       FailureCategory = "GATEWAY"
	FailureCategorySystem        FailureCategory = "SYSTEM"
)

// Transaction is a checkout attempt for one order.
type Transaction struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	OrderID         string            `gorm:"column:order_id;size:64;not null;index" json:"order_id"`
	UserID          string            `gorm:"column:user_id;size:64;not null;index" json:"user_id"`
	PaymentMethodID string            `gorm:"column:payment_method_id;size:36;not null" json:"payment_method_id"`
	Type            TransactionType   `gorm:"column:type;size:20;not null" json:"type"`
	Status          TransactionStatus `gorm:"column:status;size:20;not null;index" json:"status"`

	Amount          decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	TaxAmount       decimal.Decimal `gorm:"column:tax_amount;type:decimal(12,2);not null" json:"tax_amount"`
	ShippingAmount  decimal.Decimal `gorm:"column:shipping_amount;type:decimal(12,2);not null" json:"shipping_amount"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:decimal(12,2);not null" json:"discount_amount"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null" json:"total_amount"`
	Currency        string          `gorm:"column:currency;size:3;not null" json:"currency"`
	ExpressShipping bool            `gorm:"column:express_shipping;not null;default:false" json:"express_shipping"`
	Description     string          `gorm:"column:description;size:255" json:"description"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items"`

	ProcessorReference *string           `gorm:"column:processor_reference;size:100" json:"processor_reference,omitempty"`
	AuthorizationData  datatypes.JSONMap `gorm:"column:authorization_data" json:"authorization_data,omitempty"`
	FailureReason      *string           `gorm:"column:failure_reason;size:255" json:"failure_reason,omitempty"`
	FailureCategory    *FailureCategory  `gorm:"column:failure_category;size:20" json:"failure_category,omitempty"`
	RetryCount         int               `gorm:"column:retry_count;not null;default:0" json:"retry_count"`

	RefundReason    *string    `gorm:"column:refund_reason;size:255" json:"refund_reason,omitempty"`
	RefundReference *string    `gorm:"column:refund_reference;size:100" json:"refund_reference,omitempty"`
	RefundedAt      *time.Time `gorm:"column:refunded_at" json:"refunded_at,omitempty"`

	CreatedAt   time.Time  `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
	ProcessedAt *time.Time `gorm:"column:processed_at" json:"processed_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionItem is one cart line captured at checkout.
type TransactionItem struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"-"`
	TransactionID string          `gorm:"column:transaction_id;size:36;not null;index" json:"-"`
	ProductID     string          `gorm:"column:product_id;size:64" json:"product_id,omitempty"`
	ProductName   string          `gorm:"column:product_name;size:200;not null" json:"product_name"`
	Quantity      decimal.Decimal `gorm:"column:quantity;type:decimal(12,3);not null" json:"quantity"`
	UnitPrice     decimal.Decimal `gorm:"column:unit_price;type:decimal(12,2);not null" json:"unit_price"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:decimal(12,2);not null" json:"total_price"`
	Category      string          `gorm:"column:category;size:64" json:"category,omitempty"`
}

// TableName specifies the table name for GORM
func (TransactionItem) TableName() string {
	return "transaction_items"
}

// NewTransactionItem derives TotalPrice from quantity and unit price.
func NewTransactionItem(productID, productName string, quantity, unitPrice decimal.Decimal, category string) TransactionItem {
	return TransactionItem{
		ProductID:   productID,
		ProductName: productName,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  lineTotal(quantity, unitPrice),
		Category:    category,
	}
}

func lineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// LineTotal is quantity x unit price, whatever TotalPrice currently holds.
func (i TransactionItem) LineTotal() decimal.Decimal {
	return lineTotal(i.Quantity, i.UnitPrice)
}

// DeriveItemTotals overwrites every item's TotalPrice with its line total.
func (t *Transaction) DeriveItemTotals() {
	for i := range t.Items {
		t.Items[i].TotalPrice = t.Items[i].LineTotal()
	}
}

// Subtotal sums item line totals. Without items the stored Amount is returned.
func (t *Transaction) Subtotal() decimal.Decimal {
	if len(t.Items) == 0 {
		return t.Amount
	}
	sum := decimal.Zero
	for _, item := range t.Items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// RecalculateTotal applies total = amount + tax + shipping - discount,
// clamped at zero.
func (t *Transaction) RecalculateTotal() {
	total := t.Amount.Add(t.TaxAmount).Add(t.ShippingAmount).Sub(t.DiscountAmount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	t.TotalAmount = total
}

// TransitionTo moves the transaction to next, refusing illegal moves.
func (t *Transaction) TransitionTo(next TransactionStatus, at time.Time) error {
	if !t.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", domainerrors.ErrInvalidTransition, t.Status, next)
	}
	t.Status = next
	t.UpdatedAt = at
	return nil
}

// CanBeRetried holds for gateway or system failures below the retry cap.
// Rejected payment methods are never retried.
func (t *Transaction) CanBeRetried(maxRetries int) bool {
	if t.Status != TransactionStatusFailed || t.RetryCount >= maxRetries {
		return false
	}
	return t.FailureCategory == nil || *t.FailureCategory != FailureCategoryPaymentMethod
}

// IsTerminal reports whether no automatic transition follows.
func (t *Transaction) IsTerminal(maxRetries int) bool {
	switch t.Status {
	case TransactionStatusCompleted, TransactionStatusRefunded:
		return true
	case TransactionStatusFailed:
		return !t.CanBeRetried(maxRetries)
	default:
		return false
	}
}

// MarkCompleted records a successful authorization.
func (t *Transaction) MarkCompleted(reference string, authorization map[string]interface{}, at time.Time) error {
	if err := t.TransitionTo(TransactionStatusCompleted, at); err != nil {
		return err
	}
	t.ProcessorReference = &reference
	t.AuthorizationData = datatypes.JSONMap(authorization)
	t.ProcessedAt = &at
	t.FailureReason = nil
	t.FailureCategory = nil
	return nil
}

// MarkFailed records a failed attempt with its reason.
func (t *Transaction) MarkFailed(reason string, category FailureCategory, at time.Time) error {
	if err := t.TransitionTo(TransactionStatusFailed, at); err != nil {
		return err
	}
	t.FailureReason = &reason
	t.FailureCategory = &category
	t.ProcessedAt = &at
	return nil
}

// MarkRefunded moves a completed transaction to REFUNDED.
func (t *Transaction) MarkRefunded(reason, reference string, at time.Time) error {
	if err := t.TransitionTo(TransactionStatusRefunded, at); err != nil {
		return err
	}
	t.RefundReason = &reason
	t.RefundReference = &reference
	t.RefundedAt = &at
	return nil
}

// Clone returns a deep copy so callers never observe in-flight mutation.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.Items != nil {
		c.Items = make([]TransactionItem, len(t.Items))
		copy(c.Items, t.Items)
	}
	if t.AuthorizationData != nil {
		c.AuthorizationData = make(datatypes.JSONMap, len(t.AuthorizationData))
		for k, v := range t.AuthorizationData {
			c.AuthorizationData[k] = v
		}
	}
	c.ProcessorReference = clonePtr(t.ProcessorReference)
	c.FailureReason = clonePtr(t.FailureReason)
	c.FailureCategory = clonePtr(t.FailureCategory)
	c.RefundReason = clonePtr(t.RefundReason)
	c.RefundReference = clonePtr(t.RefundReference)
	c.RefundedAt = clonePtr(t.RefundedAt)
	c.ProcessedAt = clonePtr(t.ProcessedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
