package operations

import (
	"context"
	"errors"
	"fmt"

	"cfdprep/internal/dataprocessing"
)

// ErrorType represents the type of operation error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = ErrorType(dataprocessing.ErrorTypeValidation)
	ErrorTypeEmptyDataset ErrorType = ErrorType(dataprocessing.ErrorTypeEmptyDataset)
	ErrorTypeParse        ErrorType = ErrorType(dataprocessing.ErrorTypeParse)
	ErrorTypeIO           ErrorType = ErrorType(dataprocessing.ErrorTypeIO)
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeCancellation ErrorType = "cancellation"
)

// OperationError is the failure of one instrument, attributed to the step that failed
type OperationError struct {
	Type    ErrorType `json:"type"`
	Symbol  string    `json:"symbol"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s %s: %s", e.Type, e.Symbol, e.Step, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Symbol, e.Message)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewStepError classifies a failure returned by a step
func NewStepError(symbol, step string, cause error) *OperationError {
	errType := ErrorType(dataprocessing.GetErrorType(cause))
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		errType = ErrorTypeCancellation
	}
	return &OperationError{
		Type:    errType,
		Symbol:  symbol,
		Step:    step,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// NewConfigError reports an unusable symbol configuration
func NewConfigError(symbol string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeConfig,
		Symbol:  symbol,
		Message: cause.Error(),
		Cause:   cause,
	}
}

// NewCancellationError reports an instrument that never started because the batch stopped
func NewCancellationError(symbol string, cause error) *OperationError {
	return &OperationError{
		Type:    ErrorTypeCancellation,
		Symbol:  symbol,
		Message: "batch stopped before instrument started",
		Cause:   cause,
	}
}

// GetErrorType returns the type of the error
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorType(dataprocessing.GetErrorType(err))
}

// ErrorList represents multiple instrument failures
type ErrorList struct {
	Errors []*OperationError `json:"errors"`
}

// Error implements the error interface
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors: %d instruments failed", len(e.Errors))
}

// Unwrap exposes every failure to errors.Is and errors.As
func (e *ErrorList) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}
	return errs
}

// Add adds an error to the list
func (e *ErrorList) Add(err *OperationError) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// GetBySymbol returns the failure of one instrument, if any
func (e *ErrorList) GetBySymbol(symbol string) *OperationError {
	for _, err := range e.Errors {
		if err.Symbol == symbol {
			return err
		}
	}
	return nil
}
