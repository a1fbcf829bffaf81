package http

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	domainerrors "github.com/wekeepgrowing/agrimarket/internal/domain/errors"
	"github.com/wekeepgrowing/agrimarket/internal/middleware/auth"
	apperrors "github.com/wekeepgrowing/agrimarket/pkg/errors"
)

// RequestValidator plugs go-playground/validator into echo.Context.Validate.
// Field names in errors follow the json tags.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &RequestValidator{validate: v}
}

func (v *RequestValidator) Validate(i interface{}) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domainerrors.NewValidationError(fe.Field(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()))
	}
	return domainerrors.NewValidationError("", err.Error())
}

var errAuthRequired = apperrors.NewAppError(apperrors.ErrUnauthenticated, "authentication required", nil)

// currentUserID returns the JWT subject set by the auth middleware.
func currentUserID(c echo.Context) (string, error) {
	userID, err := auth.GetUserID(c)
	if err != nil || userID == "" {
		return "", errAuthRequired
	}
	return userID, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return domainerrors.NewValidationError("body", "invalid request body")
	}
	return c.Validate(req)
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domainerrors.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}

func queryBool(c echo.Context, name string) bool {
	v, _ := strconv.ParseBool(c.QueryParam(name))
	return v
}
