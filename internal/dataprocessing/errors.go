package dataprocessing

import (
	"errors"
	"fmt"
	"time"

	"cfdprep/pkg/contracts/domain"
)

// ErrorType classifies processing failures
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeEmptyDataset ErrorType = "empty_dataset"
	ErrorTypeParse        ErrorType = "parse"
	ErrorTypeIO           ErrorType = "io"
)

// ErrEmptyDataset is matched by every EmptyDatasetError via errors.Is
var ErrEmptyDataset = errors.New("empty dataset")

// ValidationError reports a raw record whose time of day falls outside the trading window
type ValidationError struct {
	Symbol    string
	Window    domain.TradingWindow
	Offending time.Time
	// Count is the total number of records outside the window
	Count int
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: data found outside TOD range %s: %s (%d records)",
		e.Symbol, e.Window, e.Offending.Format("2006-01-02 15:04:05"), e.Count)
}

// Type returns the error classification
func (e *ValidationError) Type() ErrorType { return ErrorTypeValidation }

// EmptyDatasetError reports that an instrument has no raw records to grid
type EmptyDatasetError struct {
	Symbol string
}

// Error implements the error interface
func (e *EmptyDatasetError) Error() string {
	return fmt.Sprintf("%s: no raw records to process", e.Symbol)
}

// Type returns the error classification
func (e *EmptyDatasetError) Type() ErrorType { return ErrorTypeEmptyDataset }

// Is matches ErrEmptyDataset
func (e *EmptyDatasetError) Is(target error) bool {
	return target == ErrEmptyDataset
}

// ParseError reports malformed raw input
type ParseError struct {
	File   string
	Line   int
	Column string
	Cause  error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("%s:%d: column %s: %v", e.File, e.Line, e.Column, e.Cause)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", e.File, e.Cause)
	}
}

// Unwrap returns the underlying error
func (e *ParseError) Unwrap() error { return e.Cause }

// Type returns the error classification
func (e *ParseError) Type() ErrorType { return ErrorTypeParse }

// GetErrorType returns the classification of err, or ErrorTypeIO for unclassified errors
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ""
	}
	var typed interface{ Type() ErrorType }
	if errors.As(err, &typed) {
		return typed.Type()
	}
	return ErrorTypeIO
}
