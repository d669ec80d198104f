// Package apierror defines the error envelope of the HTTP statement API.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nnnkkk7/sqlexec/pkg/dialect"
	"github.com/nnnkkk7/sqlexec/pkg/filter"
	"github.com/nnnkkk7/sqlexec/pkg/materialize"
	"github.com/nnnkkk7/sqlexec/pkg/param"
)

// Error codes
const (
	// Request errors (000xxx)
	CodeInternalError    = "000001"
	CodeInvalidRequest   = "000002"
	CodeInvalidParameter = "000003"
	CodeUnsupportedShape = "000004"

	// Execution errors (001xxx)
	CodeExecutionFailed  = "001007"
	CodeConversionFailed = "001008"
	CodeShapeMismatch    = "001009"
	CodeNotSupported     = "001010"
)

// SQLState represents SQL standard error states.
const (
	SQLStateSyntaxError   = "42000"
	SQLStateDataException = "22000"
	SQLStateNotSupported  = "0A000"
	SQLStateGeneralError  = "HY000"
)

var sqlStates = map[string]string{
	CodeInvalidRequest:   SQLStateSyntaxError,
	CodeInvalidParameter: SQLStateSyntaxError,
	CodeUnsupportedShape: SQLStateNotSupported,
	CodeExecutionFailed:  SQLStateDataException,
	CodeConversionFailed: SQLStateDataException,
	CodeShapeMismatch:    SQLStateDataException,
	CodeNotSupported:     SQLStateNotSupported,
}

// GetSQLState returns the SQL state for a given error code
func GetSQLState(code string) string {
	if state, ok := sqlStates[code]; ok {
		return state
	}
	return SQLStateGeneralError
}

// APIError is an error returned to HTTP clients.
type APIError struct {
	Code     string         `json:"code"`
	Message  string         `json:"message"`
	SQLState string         `json:"sqlState,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithData adds data to the error.
func (e *APIError) WithData(key string, value any) *APIError {
	if e.Data == nil {
		e.Data = make(map[string]any)
	}
	e.Data[key] = value
	return e
}

// Is checks if this error matches another error by code.
func (e *APIError) Is(target error) bool {
	var apiErr *APIError
	if errors.As(target, &apiErr) {
		return e.Code == apiErr.Code
	}
	return false
}

// HTTPStatus returns the response status for the error code.
func (e *APIError) HTTPStatus() int {
	switch e.Code {
	case CodeInvalidRequest, CodeInvalidParameter, CodeUnsupportedShape:
		return http.StatusBadRequest
	case CodeExecutionFailed, CodeConversionFailed, CodeShapeMismatch:
		return http.StatusUnprocessableEntity
	case CodeNotSupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success  bool           `json:"success"`
	Message  string         `json:"message"`
	Code     string         `json:"code"`
	SQLState string         `json:"sqlState,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ToResponse converts the error to an ErrorResponse.
func (e *APIError) ToResponse() *ErrorResponse {
	data := make(map[string]any, len(e.Data))
	for k, v := range e.Data {
		data[k] = v
	}
	return &ErrorResponse{
		Success:  false,
		Message:  e.Message,
		Code:     e.Code,
		SQLState: e.SQLState,
		Data:     data,
	}
}

// New creates an APIError with the given code and message.
func New(code, message string) *APIError {
	return &APIError{
		Code:     code,
		Message:  message,
		SQLState: GetSQLState(code),
		Data:     make(map[string]any),
	}
}

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *APIError {
	return New(CodeInvalidRequest, message)
}

// NewInvalidParameterError creates an invalid parameter error.
func NewInvalidParameterError(paramName, reason string) *APIError {
	return New(CodeInvalidParameter, fmt.Sprintf("Invalid parameter '%s': %s", paramName, reason)).
		WithData("paramName", paramName)
}

// NewUnsupportedShapeError creates an error for an unknown result shape.
func NewUnsupportedShapeError(shape string) *APIError {
	return New(CodeUnsupportedShape, fmt.Sprintf("Unsupported result shape: %s", shape)).
		WithData("shape", shape)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *APIError {
	return New(CodeInternalError, message)
}

// WrapError wraps a standard Go error into an APIError.
func WrapError(code, message string, err error) *APIError {
	e := New(code, message)
	if err != nil {
		e.Data["originalError"] = err.Error()
	}
	return e
}

// FromExecError classifies an error returned by the execution pipeline. Errors that are
// not conversion, shape or filter failures are reported as execution failures.
func FromExecError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, dialect.ErrConversion):
		return WrapError(CodeConversionFailed, err.Error(), err)
	case errors.Is(err, materialize.ErrColumnCount), errors.Is(err, materialize.ErrNoColumns):
		return WrapError(CodeShapeMismatch, err.Error(), err)
	case errors.Is(err, filter.ErrUnsupported):
		return WrapError(CodeNotSupported, err.Error(), err)
	case errors.Is(err, param.ErrAttached), errors.Is(err, param.ErrNilParameter):
		return WrapError(CodeInvalidParameter, err.Error(), err)
	default:
		return WrapError(CodeExecutionFailed, err.Error(), err)
	}
}

// FromError converts a standard error to an APIError.
// If the error is already an APIError, it returns it as-is.
// If the error is nil, it returns nil.
// Otherwise, it wraps it as an internal error.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return New(CodeInternalError, err.Error())
}
