package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// Pipeline failure kinds. Every error leaving a pipeline stage wraps exactly one of these.
var (
	ErrEngineInvocation = errors.New("engine invocation failed")
	ErrEngineOutput     = errors.New("engine output unreadable")
	ErrNoDocuments      = errors.New("no documents to reduce")
	ErrWorkerBoundary   = errors.New("worker boundary failure")
	ErrPersistence      = errors.New("persistence failed")
)

// Stage codes used in AppError.Code and in metrics labels.
const (
	StageConfig           = "CONFIG_ERROR"
	StageEngineInvocation = "ENGINE_INVOCATION"
	StageEngineOutput     = "ENGINE_OUTPUT"
	StageReduction        = "REDUCTION_PRECONDITION"
	StageWorkerBoundary   = "WORKER_BOUNDARY"
	StagePersistence      = "PERSISTENCE"
	StageInternal         = "INTERNAL"
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StageOf maps an error chain to the pipeline stage that produced it.
func StageOf(err error) string {
	var appErr *AppError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEngineInvocation):
		return StageEngineInvocation
	case errors.Is(err, ErrEngineOutput):
		return StageEngineOutput
	case errors.Is(err, ErrNoDocuments):
		return StageReduction
	case errors.Is(err, ErrWorkerBoundary):
		return StageWorkerBoundary
	case errors.Is(err, ErrPersistence):
		return StagePersistence
	case errors.As(err, &appErr):
		return appErr.Code
	}
	return StageInternal
}
