package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/domain/repository"
	"github.com/wekeepgrowing/agrimarket/internal/usecase"
	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

type RefundRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=255"`
}

type TransactionHandler struct {
	engine *usecase.TransactionEngine
	logger *zap.Logger
}

func NewTransactionHandler(engine *usecase.TransactionEngine, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		engine: engine,
		logger: logger,
	}
}

// owned loads the transaction named by the :id path parameter. Transactions
// of other users are reported as not found.
func (h *TransactionHandler) owned(c echo.Context) (*model.Transaction, error) {
	userID, err := currentUserID(c)
	if err != nil {
		return nil, err
	}
	tx, err := h.engine.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if tx.UserID != userID {
		return nil, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (h *TransactionHandler) ListTransactions(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	status := model.TransactionStatus(c.QueryParam("status"))
	if status != "" && !status.Valid() {
		return apperrors.ToHTTPError(domainerrors.NewValidationError("status", "unknown transaction status"))
	}

	txs, err := h.engine.List(c.Request().Context(), userID, repository.TransactionFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		apperrors.LogError(h.logger, err, "Failed to list transactions", zap.String("user_id", userID))
		return apperrors.ToHTTPError(err)
	}

	h.logger.Debug("Retrieved user transactions",
		zap.String("user_id", userID),
		zap.Int("count", len(txs)))

	return c.JSON(http.StatusOK, txs)
}

func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	tx, err := h.owned(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, tx)
}

// ProcessTransaction authorizes a PENDING transaction. With ?async=true the
// request returns 202 at once and the authorization continues on a worker.
func (h *TransactionHandler) ProcessTransaction(c echo.Context) error {
	tx, err := h.owned(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}
	if tx.Status != model.TransactionStatusPending {
		return apperrors.ToHTTPError(domainerrors.ErrInvalidTransition)
	}

	if queryBool(c, "async") {
		results := h.engine.ProcessAsync(context.WithoutCancel(c.Request().Context()), tx)
		go h.logAsyncResult(tx.ID, results)
		return c.JSON(http.StatusAccepted, tx)
	}

	out, err := h.engine.Process(c.Request().Context(), tx)
	if err != nil {
		apperrors.LogError(h.logger, err, "Failed to process transaction", zap.String("transaction_id", tx.ID))
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TransactionHandler) logAsyncResult(id string, results <-chan usecase.ProcessResult) {
	res, ok := <-results
	if !ok {
		return
	}
	if apperrors.HasCode(res.Err, apperrors.ErrInvalidState) {
		h.logger.Info("Transaction already processed", zap.String("transaction_id", id))
		return
	}
	if res.Err != nil {
		apperrors.LogError(h.logger, res.Err, "Background processing failed", zap.String("transaction_id", id))
		return
	}
	h.logger.Info("Background processing finished",
		zap.String("transaction_id", id),
		zap.String("status", string(res.Transaction.Status)))
}

func (h *TransactionHandler) RetryTransaction(c echo.Context) error {
	tx, err := h.owned(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	out, err := h.engine.Retry(c.Request().Context(), tx)
	if err != nil {
		apperrors.LogError(h.logger, err, "Retry refused", zap.String("transaction_id", tx.ID))
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *TransactionHandler) RefundTransaction(c echo.Context) error {
	tx, err := h.owned(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	var req RefundRequest
	if err := bindAndValidate(c, &req); err != nil {
		return apperrors.ToHTTPError(err)
	}

	out, err := h.engine.Refund(c.Request().Context(), tx, req.Reason)
	if err != nil {
		apperrors.LogError(h.logger, err, "Refund failed", zap.String("transaction_id", tx.ID))
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, out)
}
