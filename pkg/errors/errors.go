// Package errors provides structured error handling for the application.
// It defines AppError type with error codes so callers can distinguish
// validation failures from render-time failures.
package errors

import (
	"errors"
	"fmt"
)

// Error codes organized by category
const (
	CodeSuccess       = 0
	CodeUnknown       = 1000
	CodeInvalidParams = 1001
	CodeNotFound      = 1002

	// Timeline/scene validation errors (1100-1199)
	CodeInvalidScene     = 1100
	CodeTimelineTooShort = 1101
	CodeAudioMissing     = 1102

	// Caption errors (1200-1299)
	CodeCaptionOverlap = 1200
	CodeCaptionParse   = 1201

	// Encoding errors (1300-1399)
	CodeEncodingFailed = 1300
	CodeAudioMixFailed = 1301
	CodeProbeFailed    = 1302

	// Source/asset errors (1400-1499)
	CodeImageDecode   = 1400
	CodeAssetNotFound = 1401
	CodeFontNotFound  = 1402

	// Provider errors (1500-1599)
	CodeScriptLoad       = 1500
	CodeVoiceUnavailable = 1501
	CodeStockFetch       = 1502
)

// AppError represents a structured application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message
func Newf(code int, format string, args ...any) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetail wraps an error with additional detail
func WrapWithDetail(code int, message string, detail string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
	}
}

// Is checks if the target error is an AppError with the specified code
func Is(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts error code from error, returns CodeUnknown if not AppError
func GetCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetMessage extracts message from error
func GetMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

// Predefined common errors
var (
	ErrInvalidParams = New(CodeInvalidParams, "invalid parameters")
	ErrNotFound      = New(CodeNotFound, "resource not found")

	ErrInvalidScene     = New(CodeInvalidScene, "invalid scene")
	ErrTimelineTooShort = New(CodeTimelineTooShort, "timeline too short")
	ErrAudioMissing     = New(CodeAudioMissing, "narration audio is required")

	ErrCaptionOverlap = New(CodeCaptionOverlap, "overlapping caption chunks")

	ErrEncodingFailed = New(CodeEncodingFailed, "video encoding failed")
	ErrAudioMixFailed = New(CodeAudioMixFailed, "audio mixing failed")

	ErrAssetNotFound = New(CodeAssetNotFound, "asset not found")
	ErrFontNotFound  = New(CodeFontNotFound, "no usable caption font found")
)
