package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthUser is the shopper identified by a bearer token
type AuthUser struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type contextKey string

const userContextKey contextKey = "authenticated_user"

// ShopperClaims are the claims issued to marketplace shoppers
type ShopperClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig holds the configuration for JWT middleware
type JWTConfig struct {
	Secret    string
	Issuer    string // optional, checked against the iss claim when set
	Logger    *zap.Logger
	SkipPaths []string
}

var errMissingSubject = errors.New("token has no subject")

// JWTMiddleware authenticates requests carrying an HMAC-signed bearer token.
// The token subject becomes the user id for every downstream handler.
func JWTMiddleware(config JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(config.Secret), nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			if skipped(path, config.SkipPaths) {
				return next(c)
			}

			reject := func(code, message string, fields ...zap.Field) error {
				config.Logger.Warn("Rejected request", append(fields,
					zap.String("code", code),
					zap.String("path", path),
					zap.String("method", c.Request().Method))...)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": message, "code": code})
			}

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return reject("MISSING_AUTH_HEADER", "Authorization header required")
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || raw == "" {
				return reject("INVALID_AUTH_FORMAT", "Invalid authorization header format. Expected: Bearer <token>")
			}

			claims := &ShopperClaims{}
			if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
				return reject("INVALID_TOKEN", "Invalid or expired token", zap.Error(err))
			}
			if claims.Subject == "" {
				return reject("MISSING_SUBJECT", "Token subject required", zap.Error(errMissingSubject))
			}

			user := &AuthUser{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			c.Set("user_id", user.UserID)

			return next(c)
		}
	}
}

func skipped(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// WithUser stores an authenticated user on ctx
func WithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the request context
func GetUserFromContext(c echo.Context) (*AuthUser, error) {
	user, ok := c.Request().Context().Value(userContextKey).(*AuthUser)
	if !ok || user == nil {
		return nil, errors.New("no authenticated user found in context")
	}
	return user, nil
}

func GetUserID(c echo.Context) (string, error) {
	user, err := GetUserFromContext(c)
	if err != nil {
		return "", err
	}
	return user.UserID, nil
}
