package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/usecase"
	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

type CartLineRequest struct {
	ProductID   string          `json:"product_id" validate:"omitempty,max=64"`
	ProductName string          `json:"product_name" validate:"required,max=200"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Category    string          `json:"category" validate:"omitempty,max=64"`
}

type QuoteRequest struct {
	Items           []CartLineRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	ExpressShipping bool              `json:"express_shipping"`
}

type QuoteResponse struct {
	Subtotal        decimal.Decimal         `json:"subtotal"`
	TaxAmount       decimal.Decimal         `json:"tax_amount"`
	ShippingAmount  decimal.Decimal         `json:"shipping_amount"`
	DiscountAmount  decimal.Decimal         `json:"discount_amount"`
	TotalAmount     decimal.Decimal         `json:"total_amount"`
	Currency        string                  `json:"currency"`
	ExpressShipping bool                    `json:"express_shipping"`
	Items           []model.TransactionItem `json:"items"`
}

type CreateTransactionRequest struct {
	OrderID         string            `json:"order_id" validate:"omitempty,max=64"`
	PaymentMethodID string            `json:"payment_method_id" validate:"required,max=36"`
	Items           []CartLineRequest `json:"items" validate:"required,min=1,dive"`
	DiscountAmount  decimal.Decimal   `json:"discount_amount"`
	ExpressShipping bool              `json:"express_shipping"`
	Currency        string            `json:"currency" validate:"omitempty,len=3,alpha"`
	Description     string            `json:"description" validate:"omitempty,max=255"`
}

// CheckoutHandler prices carts and opens PENDING transactions.
type CheckoutHandler struct {
	engine  *usecase.TransactionEngine
	builder *usecase.CheckoutBuilder
	logger  *zap.Logger
}

func NewCheckoutHandler(engine *usecase.TransactionEngine, builder *usecase.CheckoutBuilder, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		engine:  engine,
		builder: builder,
		logger:  logger,
	}
}

func toCartLines(items []CartLineRequest) []usecase.CartLine {
	lines := make([]usecase.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, usecase.CartLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			Category:    item.Category,
		})
	}
	return lines
}

// Quote prices a cart without persisting anything.
func (h *CheckoutHandler) Quote(c echo.Context) error {
	if _, err := currentUserID(c); err != nil {
		return apperrors.ToHTTPError(err)
	}

	var req QuoteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return apperrors.ToHTTPError(err)
	}
	items, err := h.builder.Items(toCartLines(req.Items))
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	if req.DiscountAmount.IsNegative() {
		return apperrors.ToHTTPError(domainerrors.NewValidationError("discount_amount", "must not be negative"))
	}

	priced := h.engine.CalculateAmounts(&model.Transaction{
		Items:          items,
		DiscountAmount: req.DiscountAmount,
	}, req.ExpressShipping)

	return c.JSON(http.StatusOK, QuoteResponse{
		Subtotal:        priced.Amount,
		TaxAmount:       priced.TaxAmount,
		ShippingAmount:  priced.ShippingAmount,
		DiscountAmount:  priced.DiscountAmount,
		TotalAmount:     priced.TotalAmount,
		Currency:        h.engine.Currency(),
		ExpressShipping: priced.ExpressShipping,
		Items:           priced.Items,
	})
}

// CreateTransaction builds and submits a PENDING transaction.
func (h *CheckoutHandler) CreateTransaction(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	var req CreateTransactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return apperrors.ToHTTPError(err)
	}

	tx, err := h.builder.Build(usecase.CheckoutRequest{
		UserID:          userID,
		OrderID:         req.OrderID,
		PaymentMethodID: req.PaymentMethodID,
		Lines:           toCartLines(req.Items),
		DiscountAmount:  req.DiscountAmount,
		ExpressShipping: req.ExpressShipping,
		Currency:        req.Currency,
		Description:     req.Description,
	})
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	out, err := h.engine.Submit(c.Request().Context(), tx)
	if err != nil {
		apperrors.LogError(h.logger, err, "Failed to submit transaction",
			zap.String("user_id", userID),
			zap.String("order_id", tx.OrderID))
		return apperrors.ToHTTPError(err)
	}

	return c.JSON(http.StatusCreated, out)
}
