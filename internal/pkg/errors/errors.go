// Package errors provides the pipeline error taxonomy and helpers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes.
const (
	// Configuration and input errors.
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeData          = "DATA_ERROR"
	CodeUnknownLabel  = "UNKNOWN_LABEL"

	// Pipeline stage errors.
	CodeDimensionMismatch = "DIMENSION_MISMATCH"
	CodeTraining          = "TRAINING_ERROR"
	CodeEvaluation        = "EVALUATION_ERROR"
	CodeArtifact          = "ARTIFACT_ERROR"

	CodeInternal = "INTERNAL_ERROR"
)

// PipelineError represents a pipeline error with code and details.
type PipelineError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for this error. The pipeline
// is a batch program: the exit status is its only machine-readable
// failure channel.
func (e *PipelineError) ExitCode() int {
	switch e.Code {
	case CodeInvalidConfig:
		return 2
	case CodeData:
		return 3
	case CodeUnknownLabel:
		return 4
	case CodeDimensionMismatch:
		return 5
	case CodeTraining:
		return 6
	case CodeEvaluation:
		return 7
	case CodeArtifact:
		return 8
	default:
		return 1
	}
}

// New creates a new PipelineError.
func New(code, message string) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with a PipelineError.
func Wrap(code, message string, err error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error.
func (e *PipelineError) WithDetails(details map[string]string) *PipelineError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error.
func (e *PipelineError) WithDetail(key, value string) *PipelineError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// Convenience constructors.

// InvalidConfigError creates a configuration error.
func InvalidConfigError(message string) *PipelineError {
	return New(CodeInvalidConfig, message)
}

// DataError creates an input-data error.
func DataError(message string, err error) *PipelineError {
	return Wrap(CodeData, message, err)
}

// UnknownLabelError creates an error for a label missing from the vocabulary.
func UnknownLabelError(label string) *PipelineError {
	return New(CodeUnknownLabel, fmt.Sprintf("label %q is not in the vocabulary", label)).
		WithDetail("label", label)
}

// DimensionMismatchError creates a shape-mismatch error.
func DimensionMismatchError(message string) *PipelineError {
	return New(CodeDimensionMismatch, message)
}

// TrainingError creates a numeric-fitting error.
func TrainingError(message string, err error) *PipelineError {
	return Wrap(CodeTraining, message, err)
}

// EvaluationError creates a metric-computation error.
func EvaluationError(message string, err error) *PipelineError {
	return Wrap(CodeEvaluation, message, err)
}

// ArtifactError creates a model/vocabulary persistence error.
func ArtifactError(message string, err error) *PipelineError {
	return Wrap(CodeArtifact, message, err)
}

// InternalError creates an internal error.
func InternalError(message string, err error) *PipelineError {
	return Wrap(CodeInternal, message, err)
}

// CodeOf returns the pipeline error code carried by err, or CodeInternal
// when err is not a PipelineError.
func CodeOf(err error) string {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return CodeInternal
}

// ExitCodeOf returns the process exit status for err. Plain errors map
// to 1.
func ExitCodeOf(err error) int {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.ExitCode()
	}
	return 1
}

// IsUnknownLabel checks if err carries the unknown-label code.
func IsUnknownLabel(err error) bool {
	return CodeOf(err) == CodeUnknownLabel
}

// IsDimensionMismatch checks if err carries the dimension-mismatch code.
func IsDimensionMismatch(err error) bool {
	return CodeOf(err) == CodeDimensionMismatch
}

// IsTraining checks if err carries the training-failure code.
func IsTraining(err error) bool {
	return CodeOf(err) == CodeTraining
}

// IsData checks if err carries the input-data code.
func IsData(err error) bool {
	return CodeOf(err) == CodeData
}

// IsArtifact checks if err carries the artifact-persistence code.
func IsArtifact(err error) bool {
	return CodeOf(err) == CodeArtifact
}
