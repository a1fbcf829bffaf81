package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	handler "github.com/wekeepgrowing/agrimarket/internal/adapter/handler/http"
	"github.com/wekeepgrowing/agrimarket/internal/config"
	"github.com/wekeepgrowing/agrimarket/internal/domain/model"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/database"
	infragateway "github.com/wekeepgrowing/agrimarket/internal/infrastructure/gateway"
	"github.com/wekeepgrowing/agrimarket/internal/infrastructure/notification"
	"github.com/wekeepgrowing/agrimarket/internal/middleware/auth"
	"github.com/wekeepgrowing/agrimarket/internal/usecase"
	"github.com/wekeepgrowing/agrimarket/pkg/logger"
)

const (
	jwtSecret = "handler-test-secret"
	cipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
)

type apiFixture struct {
	e       *echo.Echo
	engine  *usecase.TransactionEngine
	gateway *infragateway.MockGateway
}

func newAPI(t *testing.T, responses ...infragateway.MockResponse) *apiFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db, zap.NewNop()))

	repos := database.NewRepositories(db, zap.NewNop())
	cipher, err := crypto.NewAESGCMCipher(cipherKey)
	require.NoError(t, err)

	gw := infragateway.NewMockGateway(responses...)
	cfg := config.DefaultCheckoutConfig()
	engine := usecase.NewTransactionEngine(
		repos.Transaction,
		repos.PaymentMethod,
		infragateway.Uniform(gw),
		notification.NewInboxNotifier(repos.Notification),
		cfg,
		zap.NewNop(),
	)
	t.Cleanup(engine.Wait)

	e := echo.New()
	logger.WithEchoLogger(e, zap.NewNop())
	e.Validator = handler.NewRequestValidator()

	api := e.Group("/api/v1", auth.JWTMiddleware(auth.JWTConfig{Secret: jwtSecret, Logger: zap.NewNop()}))
	handler.RegisterRoutes(api, handler.Handlers{
		Checkout:      handler.NewCheckoutHandler(engine, usecase.NewCheckoutBuilder(cfg.Currency), zap.NewNop()),
		Transaction:   handler.NewTransactionHandler(engine, zap.NewNop()),
		PaymentMethod: handler.NewPaymentMethodHandler(usecase.NewPaymentMethodService(repos.PaymentMethod, cipher, zap.NewNop()), zap.NewNop()),
		Notification:  handler.NewNotificationHandler(usecase.NewNotificationService(repos.Notification, zap.NewNop()), zap.NewNop()),
	})

	return &apiFixture{e: e, engine: engine, gateway: gw}
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func (f *apiFixture) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if userID != "" {
		req.Header.Set(echo.HeaderAuthorization, bearer(t, userID))
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var tomatoes = []map[string]interface{}{
	{"product_id": "prod-1", "product_name": "Organic Tomatoes", "unit_price": "4.99", "quantity": "3", "category": "vegetables"},
}

func (f *apiFixture) registerCard(t *testing.T, userID string) *model.PaymentMethod {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/payment-methods", userID, map[string]interface{}{
		"type":             "CREDIT_CARD",
		"card_holder_name": "Jane Doe",
		"card_number":      "4242 4242 4242 4242",
		"expiry_month":     12,
		"expiry_year":      time.Now().Year() + 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*model.PaymentMethod](t, rec)
}

func (f *apiFixture) createTransaction(t *testing.T, userID, methodID string) *model.Transaction {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/v1/transactions", userID, map[string]interface{}{
		"order_id":          "order-1",
		"payment_method_id": methodID,
		"items":             tomatoes,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[*model.Transaction](t, rec)
}

func TestQuote(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout/quote", "user-1", map[string]interface{}{"items": tomatoes})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	quote := decode[handler.QuoteResponse](t, rec)
	assert.Equal(t, "14.97", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "1.27", quote.TaxAmount.StringFixed(2))
	assert.Equal(t, "5.99", quote.ShippingAmount.StringFixed(2))
	assert.Equal(t, "22.23", quote.TotalAmount.StringFixed(2))
	assert.Equal(t, "USD", quote.Currency)
	assert.Equal(t, 0, f.gateway.CallCount())
}

func TestQuote_Validation(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodPost, "/api/v1/checkout/quote", "user-1", map[string]interface{}{"items": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_ARGUMENT")

	rec = f.do(t, http.MethodPost, "/api/v1/checkout/quote", "user-1", map[string]interface{}{
		"items": []map[string]interface{}{{"product_name": "Kale", "unit_price": "2.00", "quantity": "0"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quantity")
}

func TestUnauthenticated(t *testing.T) {
	f := newAPI(t)

	rec := f.do(t, http.MethodGet, "/api/v1/transactions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckoutFlow(t *testing.T) {
	f := newAPI(t)
	pm := f.registerCard(t, "user-1")
	assert.True(t, pm.IsDefault)
	assert.Equal(t, "**** **** **** 4242", pm.MaskedCardNumber)
	assert.NotContains(t, f.do(t, http.MethodGet, "/api/v1/payment-methods", "user-1", nil).Body.String(), "4242424242424242")

	tx := f.createTransaction(t, "user-1", pm.ID)
	assert.Equal(t, model.TransactionStatusPending, tx.Status)
	assert.Equal(t, "22.23", tx.TotalAmount.StringFixed(2))
	assert.Len(t, tx.Items, 1)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/process", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	processed := decode[*model.Transaction](t, rec)
	assert.Equal(t, model.TransactionStatusCompleted, processed.Status)
	require.NotNil(t, processed.ProcessorReference)
	assert.Equal(t, 1, f.gateway.CallCount())

	rec = f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/process", "user-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, f.gateway.CallCount())

	rec = f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/retry", "user-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_STATE")

	rec = f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/refund", "user-1", map[string]string{"reason": "damaged crate"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refunded := decode[*model.Transaction](t, rec)
	assert.Equal(t, model.TransactionStatusRefunded, refunded.Status)
	require.NotNil(t, refunded.RefundReason)
	assert.Equal(t, "damaged crate", *refunded.RefundReason)

	rec = f.do(t, http.MethodGet, "/api/v1/transactions?status=REFUNDED", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*model.Transaction](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/api/v1/transactions?status=LOST", "user-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeclineThenRetry(t *testing.T) {
	f := newAPI(t, infragateway.Declined("card declined"), infragateway.Approved("txn-2"))
	pm := f.registerCard(t, "user-1")
	tx := f.createTransaction(t, "user-1", pm.ID)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/process", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	failed := decode[*model.Transaction](t, rec)
	assert.Equal(t, model.TransactionStatusFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "card declined", *failed.FailureReason)

	rec = f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/retry", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	retried := decode[*model.Transaction](t, rec)
	assert.Equal(t, model.TransactionStatusCompleted, retried.Status)
	assert.Equal(t, 1, retried.RetryCount)
	assert.Nil(t, retried.FailureReason)
}

func TestProcessAsync(t *testing.T) {
	f := newAPI(t)
	pm := f.registerCard(t, "user-1")
	tx := f.createTransaction(t, "user-1", pm.ID)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/process?async=true", "user-1", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	f.engine.Wait()

	rec = f.do(t, http.MethodGet, "/api/v1/transactions/"+tx.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.TransactionStatusCompleted, decode[*model.Transaction](t, rec).Status)
}

func TestOwnership(t *testing.T) {
	f := newAPI(t)
	pm := f.registerCard(t, "user-1")
	tx := f.createTransaction(t, "user-1", pm.ID)

	for _, path := range []string{"", "/process", "/retry", "/refund"} {
		method := http.MethodPost
		if path == "" {
			method = http.MethodGet
		}
		rec := f.do(t, method, "/api/v1/transactions/"+tx.ID+path, "user-2", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
	assert.Equal(t, 0, f.gateway.CallCount())

	rec := f.do(t, http.MethodPut, "/api/v1/payment-methods/"+pm.ID+"/default", "user-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, "/api/v1/payment-methods/"+pm.ID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaymentMethods(t *testing.T) {
	f := newAPI(t)
	first := f.registerCard(t, "user-1")

	rec := f.do(t, http.MethodPost, "/api/v1/payment-methods", "user-1", map[string]interface{}{
		"type":              "PAYPAL",
		"wallet_account_id": "jane@example.com",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	second := decode[*model.PaymentMethod](t, rec)
	assert.False(t, second.IsDefault)

	rec = f.do(t, http.MethodPut, "/api/v1/payment-methods/"+second.ID+"/default", "user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	methods := decode[[]*model.PaymentMethod](t, f.do(t, http.MethodGet, "/api/v1/payment-methods", "user-1", nil))
	require.Len(t, methods, 2)
	assert.Equal(t, second.ID, methods[0].ID)
	assert.True(t, methods[0].IsDefault)
	assert.False(t, methods[1].IsDefault)

	rec = f.do(t, http.MethodDelete, "/api/v1/payment-methods/"+second.ID, "user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	methods = decode[[]*model.PaymentMethod](t, f.do(t, http.MethodGet, "/api/v1/payment-methods", "user-1", nil))
	require.Len(t, methods, 1)
	assert.Equal(t, first.ID, methods[0].ID)
	assert.True(t, methods[0].IsDefault)

	rec = f.do(t, http.MethodPost, "/api/v1/payment-methods", "user-1", map[string]interface{}{
		"type":             "CREDIT_CARD",
		"card_holder_name": "Jane Doe",
		"card_number":      "4242424242424241",
		"expiry_month":     12,
		"expiry_year":      time.Now().Year() + 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "card_number")
}

func TestNotifications(t *testing.T) {
	f := newAPI(t)
	pm := f.registerCard(t, "user-1")
	tx := f.createTransaction(t, "user-1", pm.ID)

	rec := f.do(t, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/process", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f.engine.Wait()

	rec = f.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[[]*model.Notification](t, rec)
	require.Len(t, inbox, 1)
	assert.Equal(t, "Payment received for order order-1", inbox[0].Subject)

	rec = f.do(t, http.MethodPut, "/api/v1/notifications/"+inbox[0].ID+"/read", "user-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/notifications/"+inbox[0].ID+"/read", "user-1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/notifications?unread=true", "user-1", nil)
	assert.Empty(t, decode[[]*model.Notification](t, rec))
}
