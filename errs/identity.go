package errs

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	Unauthorized = NewApiErr(http.StatusUnauthorized, "unauthorized")
)

// Authentication & identity-provider sentinels
var (
	ErrMissingToken        = errors.New("missing session token")
	ErrExpiredToken        = errors.New("expired session token")
	ErrInvalidToken        = errors.New("invalid session token")
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
	ErrIdentityUserMissing = errors.New("identity user not found")
)

func Malformed(payloadName string) *ApiErr {
	return NewApiErr(http.StatusBadRequest, payloadName+" malformed")
}

func BadRequest(message string) *ApiErr {
	return NewApiErr(http.StatusBadRequest, message)
}

func NewMissingTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrMissingToken,
		Details:    "Missing session token",
		Field:      "authorization",
	}
}

func NewExpiredTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrExpiredToken,
		Details:    "Session token has expired",
		Field:      "authorization",
	}
}

func NewInvalidTokenError() *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusUnauthorized,
		err:        ErrInvalidToken,
		Details:    "Session token is invalid",
		Field:      "authorization",
	}
}

// NewIdentityError wraps a failed identity-provider call. The provider is
// opaque here; callers only see which operation failed.
func NewIdentityError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrIdentityUnavailable,
		Details:    fmt.Sprintf("Identity provider call failed: %s", operation),
		Cause:      cause,
	}
}

func IsMissingToken(err error) bool {
	return errors.Is(err, ErrMissingToken)
}

func IsExpiredToken(err error) bool {
	return errors.Is(err, ErrExpiredToken)
}

func IsInvalidToken(err error) bool {
	return errors.Is(err, ErrInvalidToken)
}
