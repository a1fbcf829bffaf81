package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

func createJWT(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return tokenString
}

func createValidJWT(t *testing.T, userID string) string {
	return createJWT(t, jwt.MapClaims{
		"sub":   userID,
		"email": "test@example.com",
		"role":  "shopper",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}, testSecret)
}

func unsignedJWT(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)
	return tokenString
}

func runMiddleware(t *testing.T, config JWTConfig, req *http.Request, next echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := JWTMiddleware(config)(next)(c)
	assert.NoError(t, err)
	return rec
}

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func TestJWTMiddleware_SuccessfulAuthentication(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+createValidJWT(t, "user-1"))

	rec := runMiddleware(t, JWTConfig{Secret: testSecret}, req, func(c echo.Context) error {
		user, err := GetUserFromContext(c)
		assert.NoError(t, err)
		assert.Equal(t, "user-1", user.UserID)
		assert.Equal(t, "test@example.com", user.Email)
		assert.Equal(t, "shopper", user.Role)
		assert.Equal(t, "user-1", c.Get("user_id"))
		return okHandler(c)
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		code   string
	}{
		{
			name: "missing header",
			code: "MISSING_AUTH_HEADER",
		},
		{
			name:   "no bearer prefix",
			header: createValidJWT(t, "user-1"),
			code:   "INVALID_AUTH_FORMAT",
		},
		{
			name:   "wrong secret",
			header: "Bearer " + createJWT(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()}, "other"),
			code:   "INVALID_TOKEN",
		},
		{
			name:   "expired",
			header: "Bearer " + createJWT(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret),
			code:   "INVALID_TOKEN",
		},
		{
			name:   "no expiry",
			header: "Bearer " + createJWT(t, jwt.MapClaims{"sub": "user-1"}, testSecret),
			code:   "INVALID_TOKEN",
		},
		{
			name:   "none algorithm",
			header: "Bearer " + unsignedJWT(t),
			code:   "INVALID_TOKEN",
		},
		{
			name:   "empty bearer",
			header: "Bearer ",
			code:   "INVALID_AUTH_FORMAT",
		},
		{
			name:   "no subject",
			header: "Bearer " + createJWT(t, jwt.MapClaims{"email": "a@b.c", "exp": time.Now().Add(time.Hour).Unix()}, testSecret),
			code:   "MISSING_SUBJECT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := runMiddleware(t, JWTConfig{Secret: testSecret}, req, func(c echo.Context) error {
				t.Fatal("handler must not run")
				return nil
			})

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
		})
	}
}

func TestJWTMiddleware_Issuer(t *testing.T) {
	config := JWTConfig{Secret: testSecret, Issuer: "agrimarket-auth"}
	foreign := createJWT(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "someone-else",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)
	trusted := createJWT(t, jwt.MapClaims{
		"sub": "user-1",
		"iss": "agrimarket-auth",
		"exp": time.Now().Add(time.Hour).Unix(),
	}, testSecret)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+foreign)
	rec := runMiddleware(t, config, req, okHandler)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
	req.Header.Set("Authorization", "Bearer "+trusted)
	rec = runMiddleware(t, config, req, okHandler)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTMiddleware_SkipPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := runMiddleware(t, JWTConfig{Secret: testSecret, SkipPaths: []string{"/health"}}, req, okHandler)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetUserID(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	userID, err := GetUserID(c)
	assert.Error(t, err)
	assert.Empty(t, userID)

	c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), &AuthUser{UserID: "user-9"})))
	userID, err = GetUserID(c)
	assert.NoError(t, err)
	assert.Equal(t, "user-9", userID)
}
