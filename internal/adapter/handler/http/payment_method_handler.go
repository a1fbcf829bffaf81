package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/usecase"
	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

type RegisterPaymentMethodRequest struct {
	Type        string `json:"type" validate:"required"`
	DisplayName string `json:"display_name"`
	MakeDefault bool   `json:"make_default"`

	CardHolderName string `json:"card_holder_name"`
	CardNumber     string `json:"card_number"`
	ExpiryMonth    int    `json:"expiry_month"`
	ExpiryYear     int    `json:"expiry_year"`

	WalletAccountID string `json:"wallet_account_id"`

	BankName          string `json:"bank_name"`
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`

	ProviderToken string `json:"provider_token"`
}

type PaymentMethodHandler struct {
	service *usecase.PaymentMethodService
	logger  *zap.Logger
}

func NewPaymentMethodHandler(service *usecase.PaymentMethodService, logger *zap.Logger) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PaymentMethodHandler) ListPaymentMethods(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	methods, err := h.service.List(c.Request().Context(), userID)
	if err != nil {
		apperrors.LogError(h.logger, err, "Failed to list payment methods", zap.String("user_id", userID))
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, methods)
}

func (h *PaymentMethodHandler) RegisterPaymentMethod(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	var req RegisterPaymentMethodRequest
	if err := bindAndValidate(c, &req); err != nil {
		return apperrors.ToHTTPError(err)
	}

	pm, err := h.service.Register(c.Request().Context(), usecase.RegisterPaymentMethodInput{
		UserID:            userID,
		Type:              model.PaymentMethodType(req.Type),
		DisplayName:       req.DisplayName,
		MakeDefault:       req.MakeDefault,
		CardHolderName:    req.CardHolderName,
		CardNumber:        req.CardNumber,
		ExpiryMonth:       req.ExpiryMonth,
		ExpiryYear:        req.ExpiryYear,
		WalletAccountID:   req.WalletAccountID,
		BankName:          req.BankName,
		AccountHolderName: req.AccountHolderName,
		AccountNumber:     req.AccountNumber,
		ProviderToken:     req.ProviderToken,
	})
	if err != nil {
		apperrors.LogError(h.logger, err, "Failed to register payment method",
			zap.String("user_id", userID),
			zap.String("type", req.Type))
		return apperrors.ToHTTPError(err)
	}
	return c.JSON(http.StatusCreated, pm)
}

func (h *PaymentMethodHandler) SetDefaultPaymentMethod(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	if err := h.service.SetDefault(c.Request().Context(), userID, c.Param("id")); err != nil {
		apperrors.LogError(h.logger, err, "Failed to set default payment method",
			zap.String("user_id", userID),
			zap.String("payment_method_id", c.Param("id")))
		return apperrors.ToHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PaymentMethodHandler) DeletePaymentMethod(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return apperrors.ToHTTPError(err)
	}

	if err := h.service.Remove(c.Request().Context(), userID, c.Param("id")); err != nil {
		apperrors.LogError(h.logger, err, "Failed to remove payment method",
			zap.String("user_id", userID),
			zap.String("payment_method_id", c.Param("id")))
		return apperrors.ToHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
