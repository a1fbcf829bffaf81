package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTransactionStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     TransactionStatus
		to       TransactionStatus
		expected bool
	}{
		{TransactionStatusPending, TransactionStatusProcessing, true},
		{TransactionStatusPending, TransactionStatusFailed, true},
		{TransactionStatusPending, TransactionStatusCompleted, false},
		{TransactionStatusProcessing, TransactionStatusCompleted, true},
		{TransactionStatusProcessing, TransactionStatusFailed, true},
		{TransactionStatusProcessing, TransactionStatusPending, false},
		{TransactionStatusFailed, TransactionStatusProcessing, true},
		{TransactionStatusFailed, TransactionStatusCompleted, false},
		{TransactionStatusCompleted, TransactionStatusRefunded, true},
		{TransactionStatusCompleted, TransactionStatusFailed, false},
		{TransactionStatusRefunded, TransactionStatusPending, false},
		{TransactionStatusRefunded, TransactionStatusProcessing, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestTransaction_TransitionTo(t *testing.T) {
	now := time.Now()
	tx := &Transaction{Status: TransactionStatusPending}

	err := tx.TransitionTo(TransactionStatusCompleted, now)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTransition)
	assert.Equal(t, TransactionStatusPending, tx.Status)

	require.NoError(t, tx.TransitionTo(TransactionStatusProcessing, now))
	assert.Equal(t, TransactionStatusProcessing, tx.Status)
	assert.Equal(t, now, tx.UpdatedAt)
}

func TestTransaction_RecalculateTotal(t *testing.T) {
	t.Run("sums components", func(t *testing.T) {
		tx := &Transaction{
			Amount:         dec("14.97"),
			TaxAmount:      dec("1.27"),
			ShippingAmount: dec("5.99"),
		}
		tx.RecalculateTotal()
		assert.True(t, tx.TotalAmount.Equal(dec("22.23")), tx.TotalAmount.String())
	})

	t.Run("clamps at zero", func(t *testing.T) {
		tx := &Transaction{
			Amount:         dec("10"),
			DiscountAmount: dec("25"),
		}
		tx.RecalculateTotal()
		assert.True(t, tx.TotalAmount.IsZero())
	})
}

func TestTransaction_Subtotal(t *testing.T) {
	tx := &Transaction{Amount: dec("7.50")}
	assert.True(t, tx.Subtotal().Equal(dec("7.50")))

	tx.Items = []TransactionItem{
		NewTransactionItem("p1", "Organic Tomatoes", dec("3"), dec("4.99"), "vegetables"),
		NewTransactionItem("p2", "Free Range Eggs", dec("1"), dec("6.50"), "dairy"),
	}
	assert.True(t, tx.Items[0].TotalPrice.Equal(dec("14.97")))
	assert.True(t, tx.Subtotal().Equal(dec("21.47")))
}

func TestTransaction_DeriveItemTotals(t *testing.T) {
	tx := &Transaction{Items: []TransactionItem{
		{ProductName: "Organic Tomatoes", Quantity: dec("3"), UnitPrice: dec("4.99")},
		{ProductName: "Honey", Quantity: dec("2"), UnitPrice: dec("10.00"), TotalPrice: dec("1.00")},
	}}
	assert.True(t, tx.Subtotal().Equal(dec("34.97")), "subtotal ignores stored totals")

	tx.DeriveItemTotals()
	assert.True(t, tx.Items[0].TotalPrice.Equal(dec("14.97")))
	assert.True(t, tx.Items[1].TotalPrice.Equal(dec("20.00")))
}

func TestTransaction_CanBeRetried(t *testing.T) {
	gatewayCat := FailureCategoryGateway
	methodCat := FailureCategoryPaymentMethod

	tests := []struct {
		name     string
		tx       Transaction
		expected bool
	}{
		{"failed gateway under cap", Transaction{Status: TransactionStatusFailed, FailureCategory: &gatewayCat, RetryCount: 2}, true},
		{"failed gateway at cap", Transaction{Status: TransactionStatusFailed, FailureCategory: &gatewayCat, RetryCount: 3}, false},
		{"payment method failure", Transaction{Status: TransactionStatusFailed, FailureCategory: &methodCat}, false},
		{"completed", Transaction{Status: TransactionStatusCompleted}, false},
		{"pending", Transaction{Status: TransactionStatusPending}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.tx.CanBeRetried(3))
		})
	}
}

func TestTransaction_Marks(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tx := &Transaction{Status: TransactionStatusProcessing}
	require.NoError(t, tx.MarkFailed("card declined", FailureCategoryGateway, now))
	assert.Equal(t, "card declined", *tx.FailureReason)
	assert.True(t, tx.CanBeRetried(3))
	assert.False(t, tx.IsTerminal(3))

	require.NoError(t, tx.TransitionTo(TransactionStatusProcessing, now))
	require.NoError(t, tx.MarkCompleted("ch_1", map[string]interface{}{"provider": "stripe"}, now))
	assert.Nil(t, tx.FailureReason)
	assert.Equal(t, "ch_1", *tx.ProcessorReference)
	assert.Equal(t, now, *tx.ProcessedAt)
	assert.True(t, tx.IsTerminal(3))

	require.NoError(t, tx.MarkRefunded("damaged produce", "RFD_1", now))
	assert.Equal(t, TransactionStatusRefunded, tx.Status)
	assert.Equal(t, "RFD_1", *tx.RefundReference)

	assert.ErrorIs(t, tx.MarkRefunded("again", "RFD_2", now), domainerrors.ErrInvalidTransition)
}

func TestTransaction_Clone(t *testing.T) {
	reason := "card declined"
	tx := &Transaction{
		ID:                "tx-1",
		Status:            TransactionStatusFailed,
		FailureReason:     &reason,
		AuthorizationData: map[string]interface{}{"provider": "stripe"},
		Items:             []TransactionItem{{ProductName: "Kale"}},
	}

	c := tx.Clone()
	*c.FailureReason = "changed"
	c.AuthorizationData["provider"] = "paypal"
	c.Items[0].ProductName = "Spinach"
	c.Status = TransactionStatusProcessing

	assert.Equal(t, "card declined", *tx.FailureReason)
	assert.Equal(t, "stripe", tx.AuthorizationData["provider"])
	assert.Equal(t, "Kale", tx.Items[0].ProductName)
	assert.Equal(t, TransactionStatusFailed, tx.Status)
}
