package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrAlreadyExists   = errors.New("already exists")
	ErrNotFound        = errors.New("not found")
	ErrStoreQuery      = errors.New("store query failed")
	ErrStoreConnection = errors.New("store connection failed")
)

// Store-specific sentinels
var (
	ErrRevisionConflict  = errors.New("revision conflict")
	ErrTransactionFailed = errors.New("transaction failed")
	ErrStoreTimeout      = errors.New("store timeout")
	ErrUniqueViolation   = errors.New("unique constraint violation")
)

func NewAlreadyExists(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        fmt.Errorf("%s %w", entity, ErrAlreadyExists),
	}
}

func NewNotFound(entity string) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusNotFound,
		err:        fmt.Errorf("%s %w", entity, ErrNotFound),
	}
}

// NewStoreError wraps a collaborator failure with the operation and entity
// it occurred on. A handful of well-known failure shapes get a more
// specific status; everything else surfaces as a generic 500 while the full
// cause stays attached for server-side logging.
func NewStoreError(operation, entity string, cause error) *ApiErr {
	details := fmt.Sprintf("Failed to %s %s", operation, entity)

	if cause != nil {
		errStr := cause.Error()
		switch {
		case strings.Contains(errStr, "duplicate key"):
			return &ApiErr{
				StatusCode: http.StatusConflict,
				err:        fmt.Errorf("%s already exists", entity),
				Details:    details,
				Cause:      cause,
			}
		case strings.Contains(errStr, "context deadline exceeded"):
			return &ApiErr{
				StatusCode: http.StatusInternalServerError,
				err:        ErrStoreTimeout,
				Details:    details,
				Cause:      cause,
			}
		}
	}

	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrStoreQuery,
		Details:    details,
		Cause:      cause,
	}
}

// NewRevisionConflictError reports a lost optimistic-concurrency race after
// the bounded retries were exhausted.
func NewRevisionConflictError(entity string, attempts int) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusConflict,
		err:        ErrRevisionConflict,
		Details:    fmt.Sprintf("Gave up updating %s after %d attempts", entity, attempts),
	}
}

func NewTransactionFailedError(operation string, cause error) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrTransactionFailed,
		Details:    fmt.Sprintf("Transaction failed during %s", operation),
		Cause:      cause,
	}
}

func NewStoreTimeoutError(operation string, timeout time.Duration) *ApiErr {
	return &ApiErr{
		StatusCode: http.StatusInternalServerError,
		err:        ErrStoreTimeout,
		Details:    fmt.Sprintf("Operation %s exceeded %s", operation, timeout),
	}
}

func IsRevisionConflict(err error) bool {
	return errors.Is(err, ErrRevisionConflict)
}

func IsTransactionFailed(err error) bool {
	return errors.Is(err, ErrTransactionFailed)
}

func IsStoreTimeout(err error) bool {
	return errors.Is(err, ErrStoreTimeout)
}
