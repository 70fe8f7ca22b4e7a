package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Code classifies a store failure so callers can pick a remediation
// (request access vs. check connectivity vs. fix input).
type Code string

const (
	CodePermissionDenied Code = "permission_denied"
	CodeUnavailable      Code = "unavailable"
	CodeInvalidArgument  Code = "invalid_argument"
	CodeNotFound         Code = "not_found"
	CodeBatchFailed      Code = "batch_failed"
	CodeUnknown          Code = "unknown"
)

// Error is the failure type every store operation reports. The store never
// retries; callers decide whether to retry, surface, or degrade.
type Error struct {
	Code       Code
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("store: %s %s: %s: %v", e.Op, e.Collection, e.Code, e.Err)
	}
	return fmt.Sprintf("store: %s %s: %s", e.Op, e.Collection, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the failure code from an error, CodeUnknown if it is not
// a store error.
func CodeOf(err error) Code {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

func wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: classify(err), Op: op, Collection: collection, Err: err}
}

func wrapCode(op, collection string, code Code, err error) error {
	return &Error{Code: code, Op: op, Collection: collection, Err: err}
}

func classify(err error) Code {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return CodeNotFound
	case errors.Is(err, gorm.ErrInvalidData),
		errors.Is(err, gorm.ErrInvalidField),
		errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrMissingWhereClause):
		return CodeInvalidArgument
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return CodeUnavailable
	}

	// Driver errors arrive as SQLSTATE strings through the gorm postgres
	// driver; match the classes we care about.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "SQLSTATE 42501"), strings.Contains(msg, "permission denied"):
		return CodePermissionDenied
	case strings.Contains(msg, "SQLSTATE 22"), strings.Contains(msg, "SQLSTATE 23"), strings.Contains(msg, "SQLSTATE 42"):
		return CodeInvalidArgument
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "SQLSTATE 08"), strings.Contains(msg, "broken pipe"):
		return CodeUnavailable
	}
	return CodeUnknown
}
