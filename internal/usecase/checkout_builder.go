package usecase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
)

// CartLine is one product line handed over by the cart.
type CartLine struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	Category    string
}

// CheckoutRequest describes a cart ready to be paid.
type CheckoutRequest struct {
	UserID          string
	OrderID         string
	PaymentMethodID string
	Lines           []CartLine
	DiscountAmount  decimal.Decimal
	ExpressShipping bool
	Currency        string
	Description     string
}

// CheckoutBuilder turns cart contents into an unpersisted PENDING
// transaction.
type CheckoutBuilder struct {
	currency string
}

func NewCheckoutBuilder(defaultCurrency string) *CheckoutBuilder {
	return &CheckoutBuilder{currency: defaultCurrency}
}

// Build validates req and returns the transaction without amounts applied.
func (b *CheckoutBuilder) Build(req CheckoutRequest) (*model.Transaction, error) {
	if strings.TrimSpace(req.UserID) == "" {
		return nil, domainerrors.NewValidationError("user_id", "is required")
	}
	if strings.TrimSpace(req.PaymentMethodID) == "" {
		return nil, domainerrors.NewValidationError("payment_method_id", "is required")
	}
	if req.DiscountAmount.IsNegative() {
		return nil, domainerrors.NewValidationError("discount_amount", "must not be negative")
	}

	items, err := b.Items(req.Lines)
	if err != nil {
		return nil, err
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = b.currency
	}
	description := req.Description
	if description == "" {
		description = fmt.Sprintf("Order %s (%d items)", orderID, len(items))
	}

	tx := &model.Transaction{
		OrderID:         orderID,
		UserID:          req.UserID,
		PaymentMethodID: req.PaymentMethodID,
		Type:            model.TransactionTypePurchase,
		Status:          model.TransactionStatusPending,
		Currency:        currency,
		DiscountAmount:  req.DiscountAmount,
		ExpressShipping: req.ExpressShipping,
		Description:     description,
		Items:           items,
	}
	tx.Amount = tx.Subtotal()
	return tx, nil
}

// Items validates cart lines and converts them to transaction items.
func (b *CheckoutBuilder) Items(lines []CartLine) ([]model.TransactionItem, error) {
	if len(lines) == 0 {
		return nil, domainerrors.NewValidationError("items", "cart is empty")
	}
	items := make([]model.TransactionItem, 0, len(lines))
	for i, line := range lines {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(line.ProductName) == "" {
			return nil, domainerrors.NewValidationError(field+".product_name", "is required")
		}
		if !line.Quantity.IsPositive() {
			return nil, domainerrors.NewValidationError(field+".quantity", "must be greater than zero")
		}
		if line.UnitPrice.IsNegative() {
			return nil, domainerrors.NewValidationError(field+".unit_price", "must not be negative")
		}
		items = append(items, model.NewTransactionItem(line.ProductID, line.ProductName, line.Quantity, line.UnitPrice, line.Category))
	}
	return items, nil
}
