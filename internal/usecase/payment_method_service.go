package usecase

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/domain/repository"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/crypto"
	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

// RegisterPaymentMethodInput carries raw payment details. Raw numbers are
// masked and encrypted before anything is stored.
type RegisterPaymentMethodInput struct {
	UserID      string                  `json:"user_id" validate:"required,max=64"`
	Type        model.PaymentMethodType `json:"type" validate:"required,oneof=CREDIT_CARD DEBIT_CARD PAYPAL APPLE_PAY GOOGLE_PAY BANK_TRANSFER CASH_ON_DELIVERY"`
	DisplayName string                  `json:"display_name" validate:"omitempty,max=120"`
	MakeDefault bool                    `json:"make_default"`

	CardHolderName string `json:"card_holder_name" validate:"omitempty,max=120"`
	CardNumber     string `json:"card_number" validate:"omitempty,numeric,min=12,max=19,luhn_checksum"`
	ExpiryMonth    int    `json:"expiry_month" validate:"omitempty,min=1,max=12"`
	ExpiryYear     int    `json:"expiry_year" validate:"omitempty,min=2000,max=2100"`

	WalletAccountID string `json:"wallet_account_id" validate:"omitempty,max=120"`

	BankName          string `json:"bank_name" validate:"omitempty,max=120"`
	AccountHolderName string `json:"account_holder_name" validate:"omitempty,max=120"`
	AccountNumber     string `json:"account_number" validate:"omitempty,numeric,min=4,max=34"`

	// ProviderToken is an opaque token issued by the processor (for
	// example a Stripe payment method id). It is sealed in place of the
	// raw card number when present.
	ProviderToken string `json:"provider_token" validate:"omitempty,max=255"`
}

// PaymentMethodService manages a user's saved payment methods.
type PaymentMethodService struct {
	repo      repository.PaymentMethodRepository
	cipher    crypto.SecretCipher
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewPaymentMethodService creates a new payment method service
func NewPaymentMethodService(
	repo repository.PaymentMethodRepository,
	cipher crypto.SecretCipher,
	logger *zap.Logger,
) *PaymentMethodService {
	return &PaymentMethodService{
		repo:      repo,
		cipher:    cipher,
		validator: newInputValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register validates, masks and encrypts a new payment method. A user's
// first method becomes the default.
func (s *PaymentMethodService) Register(ctx context.Context, in RegisterPaymentMethodInput) (*model.PaymentMethod, error) {
	in.CardNumber = digitsOnly(in.CardNumber)
	in.AccountNumber = digitsOnly(in.AccountNumber)

	if err := s.validator.Struct(in); err != nil {
		return nil, toValidationError(err)
	}

	now := s.now()
	pm := &model.PaymentMethod{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Type:        in.Type,
		IsActive:    true,
		CreatedAt:   now,
		LastUpdated: now,
	}

	secret, err := s.fill(pm, in, now)
	if err != nil {
		return nil, err
	}
	if in.DisplayName != "" {
		pm.DisplayName = in.DisplayName
	} else {
		pm.DisplayName = defaultDisplayName(pm)
	}
	if secret != "" {
		if err := crypto.SealPaymentSecret(s.cipher, pm, secret); err != nil {
			s.logger.Error("failed to encrypt payment secret",
				zap.String("user_id", in.UserID),
				zap.Error(err))
			return nil, apperrors.Wrap(err, "failed to encrypt payment method")
		}
	}

	// Inserted without the flag; the default is assigned under the user's
	// row lock so concurrent first registrations cannot both claim it.
	pm.IsDefault = false
	if err := s.repo.Save(ctx, pm); err != nil {
		return nil, err
	}
	if in.MakeDefault {
		if err := s.repo.SetDefault(ctx, in.UserID, pm.ID); err != nil {
			return nil, err
		}
		pm.IsDefault = true
	} else {
		claimed, err := s.repo.ClaimDefault(ctx, in.UserID, pm.ID)
		if err != nil {
			return nil, err
		}
		pm.IsDefault = claimed
	}

	s.logger.Info("Payment method registered",
		zap.String("payment_method_id", pm.ID),
		zap.String("user_id", pm.UserID),
		zap.String("type", string(pm.Type)),
		zap.Bool("is_default", pm.IsDefault))
	return pm, nil
}

// fill copies the type specific fields and returns the secret to seal.
func (s *PaymentMethodService) fill(pm *model.PaymentMethod, in RegisterPaymentMethodInput, now time.Time) (string, error) {
	switch {
	case in.Type.IsCard():
		if in.CardNumber == "" {
			return "", domainerrors.NewValidationError("card_number", "is required")
		}
		if strings.TrimSpace(in.CardHolderName) == "" {
			return "", domainerrors.NewValidationError("card_holder_name", "is required")
		}
		if in.ExpiryMonth == 0 || in.ExpiryYear == 0 {
			return "", domainerrors.NewValidationError("expiry", "month and year are required")
		}
		pm.CardHolderName = in.CardHolderName
		pm.CardBrand = cardBrand(in.CardNumber)
		pm.MaskedCardNumber = "**** **** **** " + lastFour(in.CardNumber)
		pm.ExpiryMonth = in.ExpiryMonth
		pm.ExpiryYear = in.ExpiryYear
		if pm.IsExpired(now) {
			return "", domainerrors.NewValidationError("expiry", "card has expired")
		}
		if in.ProviderToken != "" {
			return in.ProviderToken, nil
		}
		return in.CardNumber, nil

	case in.Type.IsDigitalWallet():
		if strings.TrimSpace(in.WalletAccountID) == "" {
			return "", domainerrors.NewValidationError("wallet_account_id", "is required")
		}
		pm.WalletProvider = walletProvider(in.Type)
		pm.WalletAccountID = in.WalletAccountID
		return in.ProviderToken, nil

	case in.Type == model.PaymentMethodBankTransfer:
		if strings.TrimSpace(in.BankName) == "" {
			return "", domainerrors.NewValidationError("bank_name", "is required")
		}
		if strings.TrimSpace(in.AccountHolderName) == "" {
			return "", domainerrors.NewValidationError("account_holder_name", "is required")
		}
		if in.AccountNumber == "" {
			return "", domainerrors.NewValidationError("account_number", "is required")
		}
		pm.BankName = in.BankName
		pm.AccountHolderName = in.AccountHolderName
		pm.MaskedAccountNumber = "****" + lastFour(in.AccountNumber)
		return in.AccountNumber, nil

	default:
		return "", nil
	}
}

// List returns the user's active methods, default first.
func (s *PaymentMethodService) List(ctx context.Context, userID string) ([]*model.PaymentMethod, error) {
	return s.repo.FindByUser(ctx, userID)
}

// Get returns a method owned by userID.
func (s *PaymentMethodService) Get(ctx context.Context, userID, id string) (*model.PaymentMethod, error) {
	pm, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pm == nil || pm.UserID != userID {
		return nil, domainerrors.ErrPaymentMethodNotFound
	}
	return pm, nil
}

// SetDefault makes id the user's only default method.
func (s *PaymentMethodService) SetDefault(ctx context.Context, userID, id string) error {
	if err := s.repo.SetDefault(ctx, userID, id); err != nil {
		return err
	}
	s.logger.Info("Default payment method changed",
		zap.String("user_id", userID),
		zap.String("payment_method_id", id))
	return nil
}

// Remove soft-deletes a method. When it was the default, the next method
// in list order is promoted.
func (s *PaymentMethodService) Remove(ctx context.Context, userID, id string) error {
	pm, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Payment method removed",
		zap.String("user_id", userID),
		zap.String("payment_method_id", id))

	if !pm.IsDefault {
		return nil
	}
	remaining, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return nil
	}
	return s.repo.SetDefault(ctx, userID, remaining[0].ID)
}

// newInputValidator reports fields by their json names.
func newInputValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func toValidationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		return domainerrors.NewValidationError(fe.Field(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}
	return domainerrors.NewValidationError("", err.Error())
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, s)
}

func lastFour(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

func cardBrand(number string) string {
	prefix := func(n int) int {
		if len(number) < n {
			return -1
		}
		v := 0
		for _, c := range number[:n] {
			v = v*10 + int(c-'0')
		}
		return v
	}
	switch {
	case strings.HasPrefix(number, "4"):
		return "Visa"
	case prefix(2) >= 51 && prefix(2) <= 55, prefix(4) >= 2221 && prefix(4) <= 2720:
		return "Mastercard"
	case prefix(2) == 34 || prefix(2) == 37:
		return "American Express"
	case prefix(4) == 6011 || prefix(2) == 65, prefix(3) >= 644 && prefix(3) <= 649:
		return "Discover"
	case prefix(2) == 35:
		return "JCB"
	default:
		return "Card"
	}
}

func walletProvider(t model.PaymentMethodType) string {
	switch t {
	case model.PaymentMethodApplePay:
		return "Apple Pay"
	case model.PaymentMethodGooglePay:
		return "Google Pay"
	default:
		return "PayPal"
	}
}

func defaultDisplayName(pm *model.PaymentMethod) string {
	switch {
	case pm.Type.IsCard():
		return pm.CardBrand + " •••• " + lastFour(pm.MaskedCardNumber)
	case pm.Type.IsDigitalWallet():
		return fmt.Sprintf("%s (%s)", pm.WalletProvider, pm.WalletAccountID)
	case pm.Type == model.PaymentMethodBankTransfer:
		return pm.BankName + " •••• " + lastFour(pm.MaskedAccountNumber)
	default:
		return "Cash on delivery"
	}
}
