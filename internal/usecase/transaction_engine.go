package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wekeepgrowing/agrimarket/internal/config"
	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/gateway"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/domain/notification"
	"github.com/wekeepgrowing/agrimarket/internal/domain/repository"
)

// Failure reasons recorded on transactions.
const (
	ReasonInvalidPaymentMethod = "Invalid payment method"
	ReasonExpiredPaymentMethod = "Payment method has expired"
	ReasonUnsupportedMethod    = "Unsupported payment method"
	ReasonGatewayTimeout       = "gateway timeout"
	ReasonSystemError          = "system error while processing payment"
	ReasonDeclined             = "payment declined"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// ProcessResult is delivered by ProcessAsync.
type ProcessResult struct {
	Transaction *model.Transaction
	Err         error
}

// TransactionEngine owns the purchase state machine: pricing, gateway
// authorization, retries and refunds.
type TransactionEngine struct {
	txRepo     repository.TransactionRepository
	methodRepo repository.PaymentMethodRepository
	gateways   gateway.Registry
	notifier   notification.Notifier
	cfg        config.CheckoutConfig
	logger     *zap.Logger

	locks   *keyedMutex
	workers *semaphore.Weighted
	now     func() time.Time
	wg      sync.WaitGroup
}

// EngineOption customizes a TransactionEngine.
type EngineOption func(*TransactionEngine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *TransactionEngine) {
		e.now = now
	}
}

// NewTransactionEngine creates a new transaction engine. notifier may be nil.
func NewTransactionEngine(
	txRepo repository.TransactionRepository,
	methodRepo repository.PaymentMethodRepository,
	gateways gateway.Registry,
	notifier notification.Notifier,
	cfg config.CheckoutConfig,
	logger *zap.Logger,
	opts ...EngineOption,
) *TransactionEngine {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	e := &TransactionEngine{
		txRepo:     txRepo,
		methodRepo: methodRepo,
		gateways:   gateways,
		notifier:   notifier,
		cfg:        cfg,
		logger:     logger,
		locks:      newKeyedMutex(),
		workers:    semaphore.NewWeighted(int64(workers)),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxRetries returns the configured retry cap.
func (e *TransactionEngine) MaxRetries() int {
	return e.cfg.MaxRetries
}

// Currency returns the default currency for new transactions.
func (e *TransactionEngine) Currency() string {
	return e.cfg.Currency
}

// CalculateAmounts prices tx and returns a new transaction. tx is not
// modified.
func (e *TransactionEngine) CalculateAmounts(tx *model.Transaction, expressShipping bool) *model.Transaction {
	out := tx.Clone()
	out.DeriveItemTotals()
	subtotal := out.Subtotal()

	out.Amount = subtotal
	out.TaxAmount = subtotal.Mul(e.cfg.TaxRate).Round(2)
	out.ExpressShipping = expressShipping
	switch {
	case subtotal.GreaterThanOrEqual(e.cfg.FreeShippingThreshold):
		out.ShippingAmount = decimal.Zero
	case expressShipping:
		out.ShippingAmount = e.cfg.ExpressShipping
	default:
		out.ShippingAmount = e.cfg.StandardShipping
	}
	out.RecalculateTotal()
	return out
}

// Validate checks a transaction before it is persisted.
func (e *TransactionEngine) Validate(tx *model.Transaction) error {
	if tx == nil {
		return domainerrors.NewValidationError("transaction", "is required")
	}
	if strings.TrimSpace(tx.UserID) == "" {
		return domainerrors.NewValidationError("user_id", "is required")
	}
	if strings.TrimSpace(tx.OrderID) == "" {
		return domainerrors.NewValidationError("order_id", "is required")
	}
	if strings.TrimSpace(tx.PaymentMethodID) == "" {
		return domainerrors.NewValidationError("payment_method_id", "is required")
	}
	if tx.Currency != "" && !currencyPattern.MatchString(tx.Currency) {
		return domainerrors.NewValidationError("currency", "must be a 3 letter ISO code")
	}
	if tx.DiscountAmount.IsNegative() {
		return domainerrors.NewValidationError("discount_amount", "must not be negative")
	}
	for i, item := range tx.Items {
		if !item.Quantity.IsPositive() {
			return domainerrors.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return domainerrors.NewValidationError(fmt.Sprintf("items[%d].unit_price", i), "must not be negative")
		}
	}
	if len(tx.Items) == 0 && !tx.Amount.IsPositive() {
		return domainerrors.NewValidationError("amount", "must be positive when there are no items")
	}
	return nil
}

// Submit prices and persists a new PENDING transaction.
func (e *TransactionEngine) Submit(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	if err := e.Validate(tx); err != nil {
		return nil, err
	}

	out := e.CalculateAmounts(tx, tx.ExpressShipping)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Type == "" {
		out.Type = model.TransactionTypePurchase
	}
	if out.Currency == "" {
		out.Currency = e.cfg.Currency
	}
	now := e.now()
	out.Status = model.TransactionStatusPending
	out.RetryCount = 0
	out.CreatedAt = now
	out.UpdatedAt = now
	for i := range out.Items {
		out.Items[i].TransactionID = out.ID
	}

	if err := e.txRepo.Create(ctx, out); err != nil {
		return nil, err
	}

	e.logger.Info("Transaction submitted",
		zap.String("transaction_id", out.ID),
		zap.String("order_id", out.OrderID),
		zap.String("user_id", out.UserID),
		zap.String("total", out.TotalAmount.StringFixed(2)))
	return out.Clone(), nil
}

// Get returns the stored transaction.
func (e *TransactionEngine) Get(ctx context.Context, id string) (*model.Transaction, error) {
	tx, err := e.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

// List returns a user's transactions, newest first.
func (e *TransactionEngine) List(ctx context.Context, userID string, filter repository.TransactionFilter) ([]*model.Transaction, error) {
	return e.txRepo.ListByUser(ctx, userID, filter)
}

// Process authorizes a PENDING transaction and returns its resolved state.
// The only errors returned are storage failures, unknown ids and calls on
// a transaction that is not PENDING; payment failures are recorded on the
// transaction instead.
func (e *TransactionEngine) Process(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	unlock := e.locks.Lock(tx.ID)
	defer unlock()

	current, err := e.Get(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.TransactionStatusPending {
		return nil, fmt.Errorf("%w: cannot process %s transaction", domainerrors.ErrInvalidTransition, current.Status)
	}
	return e.attempt(ctx, current.Clone())
}

// ProcessAsync runs Process on a worker and delivers the result on the
// returned channel, which is closed afterwards.
func (e *TransactionEngine) ProcessAsync(ctx context.Context, tx *model.Transaction) <-chan ProcessResult {
	ch := make(chan ProcessResult, 1)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer close(ch)

		if err := e.workers.Acquire(ctx, 1); err != nil {
			ch <- ProcessResult{Err: err}
			return
		}
		defer e.workers.Release(1)

		out, err := e.Process(ctx, tx)
		ch <- ProcessResult{Transaction: out, Err: err}
	}()
	return ch
}

// Retry re-runs a failed transaction when its failure is retryable and the
// retry cap is not reached. Refusals leave the transaction unchanged.
func (e *TransactionEngine) Retry(ctx context.Context, tx *model.Transaction) (*model.Transaction, error) {
	unlock := e.locks.Lock(tx.ID)
	defer unlock()

	current, err := e.Get(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if !current.CanBeRetried(e.cfg.MaxRetries) {
		if current.Status == model.TransactionStatusFailed &&
			(current.FailureCategory == nil || *current.FailureCategory != model.FailureCategoryPaymentMethod) {
			return nil, domainerrors.ErrMaxRetriesExceeded
		}
		return nil, domainerrors.ErrNotRetryable
	}

	work := current.Clone()
	work.RetryCount++
	if err := work.TransitionTo(model.TransactionStatusProcessing, e.now()); err != nil {
		return nil, err
	}

	e.logger.Info("Retrying transaction",
		zap.String("transaction_id", work.ID),
		zap.Int("retry_count", work.RetryCount),
		zap.Int("max_retries", e.cfg.MaxRetries))
	return e.attempt(ctx, work)
}

// Refund moves a COMPLETED transaction to REFUNDED.
func (e *TransactionEngine) Refund(ctx context.Context, tx *model.Transaction, reason string) (*model.Transaction, error) {
	unlock := e.locks.Lock(tx.ID)
	defer unlock()

	current, err := e.Get(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(reason) == "" {
		reason = "requested by customer"
	}

	work := current.Clone()
	reference := "RFD_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	if err := work.MarkRefunded(reason, reference, e.now()); err != nil {
		return nil, err
	}
	if err := e.txRepo.Update(ctx, work); err != nil {
		return nil, err
	}

	e.logger.Info("Transaction refunded",
		zap.String("transaction_id", work.ID),
		zap.String("refund_reference", reference))
	e.notifyOutcome(work)
	return work.Clone(), nil
}

// attempt runs one authorization on work, which is PENDING or already
// moved to PROCESSING by a retry. work is private to the caller.
func (e *TransactionEngine) attempt(ctx context.Context, work *model.Transaction) (*model.Transaction, error) {
	pm, err := e.methodRepo.FindByID(ctx, work.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	switch {
	case pm == nil || !pm.IsActive || pm.UserID != work.UserID:
		return e.fail(ctx, work, ReasonInvalidPaymentMethod, model.FailureCategoryPaymentMethod)
	case pm.IsExpired(now):
		return e.fail(ctx, work, ReasonExpiredPaymentMethod, model.FailureCategoryPaymentMethod)
	}

	gw, ok := e.gateways.For(pm.Type)
	if !ok {
		return e.fail(ctx, work, ReasonUnsupportedMethod, model.FailureCategoryPaymentMethod)
	}

	if work.Status == model.TransactionStatusPending {
		if err := work.TransitionTo(model.TransactionStatusProcessing, now); err != nil {
			return nil, err
		}
	}
	if err := e.txRepo.Update(ctx, work); err != nil {
		return nil, err
	}

	req := &gateway.AuthorizeRequest{
		TransactionID: work.ID,
		Attempt:       work.RetryCount,
		PaymentMethod: pm,
		Amount:        work.TotalAmount,
		Currency:      work.Currency,
		Description:   work.Description,
		Metadata: map[string]interface{}{
			"order_id":    work.OrderID,
			"user_id":     work.UserID,
			"retry_count": work.RetryCount,
		},
	}
	result, err := e.authorize(ctx, gw, req)

	// The outcome is recorded even when the caller gave up waiting.
	persistCtx := context.WithoutCancel(ctx)

	switch {
	case errors.Is(err, domainerrors.ErrGatewayTimeout):
		return e.fail(persistCtx, work, ReasonGatewayTimeout, model.FailureCategoryGateway)
	case err != nil:
		var perr *gateway.ProviderError
		if errors.As(err, &perr) {
			e.logger.Warn("Payment provider call failed",
				zap.String("transaction_id", work.ID),
				zap.String("provider", perr.Provider),
				zap.Error(err))
			return e.fail(persistCtx, work, perr.Message, model.FailureCategoryGateway)
		}
		e.logger.Error("Unexpected error during authorization",
			zap.String("transaction_id", work.ID),
			zap.String("provider", gw.Name()),
			zap.Error(err))
		return e.fail(persistCtx, work, ReasonSystemError, model.FailureCategorySystem)
	case result == nil:
		return e.fail(persistCtx, work, ReasonSystemError, model.FailureCategorySystem)
	case !result.Success:
		reason := result.Message
		if reason == "" {
			reason = ReasonDeclined
		}
		category := model.FailureCategoryGateway
		if result.MethodRejected {
			category = model.FailureCategoryPaymentMethod
		}
		return e.fail(persistCtx, work, reason, category)
	}

	completedAt := e.now()
	authorization := map[string]interface{}{
		"provider":                gw.Name(),
		"provider_transaction_id": result.TransactionID,
		"message":                 result.Message,
	}
	reference := result.ProviderReference
	if reference == "" {
		reference = result.TransactionID
	}
	if err := work.MarkCompleted(reference, authorization, completedAt); err != nil {
		return nil, err
	}
	if err := e.txRepo.Update(persistCtx, work); err != nil {
		return nil, err
	}

	if err := e.methodRepo.MarkUsed(persistCtx, pm.ID, completedAt); err != nil {
		// The charge is settled; a stale lastUsed only affects list ordering.
		e.logger.Error("Failed to mark payment method used",
			zap.String("transaction_id", work.ID),
			zap.String("payment_method_id", pm.ID),
			zap.Error(err))
	}

	e.logger.Info("Transaction completed",
		zap.String("transaction_id", work.ID),
		zap.String("provider", gw.Name()),
		zap.String("processor_reference", reference),
		zap.Int("retry_count", work.RetryCount))
	e.notifyOutcome(work)
	return work.Clone(), nil
}

// authorize calls gw bounded by the gateway timeout. Panics in the gateway
// come back as errors.
func (e *TransactionEngine) authorize(ctx context.Context, gw gateway.PaymentGateway, req *gateway.AuthorizeRequest) (*gateway.PaymentResult, error) {
	timeout := e.cfg.GatewayTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result *gateway.PaymentResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("gateway %s panicked: %v", gw.Name(), r)}
			}
		}()
		result, err := gw.Authorize(callCtx, req)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && callCtx.Err() != nil {
			return nil, domainerrors.ErrGatewayTimeout
		}
		return out.result, out.err
	case <-callCtx.Done():
		return nil, domainerrors.ErrGatewayTimeout
	}
}

// fail records a failed attempt. PAYMENT_METHOD failures never reach a
// gateway.
func (e *TransactionEngine) fail(ctx context.Context, work *model.Transaction, reason string, category model.FailureCategory) (*model.Transaction, error) {
	if err := work.MarkFailed(reason, category, e.now()); err != nil {
		return nil, err
	}
	if err := e.txRepo.Update(ctx, work); err != nil {
		return nil, err
	}

	e.logger.Warn("Transaction failed",
		zap.String("transaction_id", work.ID),
		zap.String("reason", reason),
		zap.String("category", string(category)),
		zap.Int("retry_count", work.RetryCount),
		zap.Bool("retryable", work.CanBeRetried(e.cfg.MaxRetries)))
	e.notifyOutcome(work)
	return work.Clone(), nil
}

// notifyOutcome reports a terminal or failed state without blocking the
// caller. Delivery errors are logged only.
func (e *TransactionEngine) notifyOutcome(tx *model.Transaction) {
	if e.notifier == nil {
		return
	}
	subject, body := describeOutcome(tx, e.cfg.MaxRetries)
	if subject == "" {
		return
	}

	timeout := e.cfg.NotificationTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	userID, txID := tx.UserID, tx.ID

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := e.notifier.Send(ctx, userID, subject, body); err != nil {
			e.logger.Warn("Failed to send transaction notification",
				zap.String("transaction_id", txID),
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}()
}

// Wait blocks until background processing and notifications finish.
func (e *TransactionEngine) Wait() {
	e.wg.Wait()
}

func describeOutcome(tx *model.Transaction, maxRetries int) (string, string) {
	total := tx.TotalAmount.StringFixed(2) + " " + tx.Currency
	switch tx.Status {
	case model.TransactionStatusCompleted:
		ref := ""
		if tx.ProcessorReference != nil {
			ref = *tx.ProcessorReference
		}
		return fmt.Sprintf("Payment received for order %s", tx.OrderID),
			fmt.Sprintf("We received your payment of %s. Reference: %s.", total, ref)
	case model.TransactionStatusFailed:
		reason := ""
		if tx.FailureReason != nil {
			reason = *tx.FailureReason
		}
		body := fmt.Sprintf("Your payment of %s could not be completed: %s.", total, reason)
		if tx.CanBeRetried(maxRetries) {
			body += " You can retry this payment."
		}
		return fmt.Sprintf("Payment failed for order %s", tx.OrderID), body
	case model.TransactionStatusRefunded:
		return fmt.Sprintf("Refund issued for order %s", tx.OrderID),
			fmt.Sprintf("A refund of %s has been issued.", total)
	default:
		return "", ""
	}
}
