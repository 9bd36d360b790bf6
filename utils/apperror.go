package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable machine-readable kind of a business-rule failure.
type ErrorCode string

const (
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	CodeSlotUnavailable   ErrorCode = "SLOT_UNAVAILABLE"
	CodeConflict          ErrorCode = "CONFLICT"
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	CodeAlreadyRequested  ErrorCode = "ALREADY_REQUESTED"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
)

// AppError is a deterministic, caller-caused failure surfaced verbatim to the
// invoking layer. The engine never retries these internally.
type AppError struct {
	Code    ErrorCode
	Message string
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotFoundErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func UnauthorizedErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransitionErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func SlotUnavailableErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeSlotUnavailable, Message: fmt.Sprintf(format, args...)}
}

func ConflictErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func InsufficientFundsErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeInsufficientFunds, Message: fmt.Sprintf(format, args...)}
}

func AlreadyRequestedErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeAlreadyRequested, Message: fmt.Sprintf(format, args...)}
}

func InvalidStateErr(format string, args ...any) *AppError {
	return &AppError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// HTTPStatus maps an error code to its HTTP response status.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeInvalidState:
		return http.StatusUnprocessableEntity
	case CodeSlotUnavailable, CodeConflict, CodeAlreadyRequested:
		return http.StatusConflict
	case CodeInsufficientFunds:
		return http.StatusPaymentRequired
	}
	return http.StatusInternalServerError
}
