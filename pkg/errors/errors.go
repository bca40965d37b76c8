package errors

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	// Storage read/write errors
	ErrTypeStorage ErrorType = "storage"
	// Validation errors
	ErrTypeValidation ErrorType = "validation"
	// Not-found conditions on id-keyed operations
	ErrTypeNotFound ErrorType = "not_found"
	// Configuration errors
	ErrTypeConfig ErrorType = "configuration"
	// Generic application errors
	ErrTypeApp ErrorType = "application"
)

// AppError represents a structured application error
type AppError struct {
	Type        ErrorType              `json:"type"`
	Code        string                 `json:"code"`
	Message     string                 `json:"message"`
	UserMessage string                 `json:"userMessage"`
	InternalErr error                  `json:"-"`
	Context     map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.InternalErr != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.InternalErr)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap exposes the wrapped error to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.InternalErr
}

// GetUserMessage returns a user-friendly error message
func (e *AppError) GetUserMessage() string {
	if e.UserMessage != "" {
		return e.UserMessage
	}
	return e.Message
}

// WithContext adds context information to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	clone := *e
	if clone.Context == nil {
		clone.Context = make(map[string]interface{})
	} else {
		clone.Context = make(map[string]interface{}, len(e.Context)+1)
		for k, v := range e.Context {
			clone.Context[k] = v
		}
	}
	clone.Context[key] = value
	return &clone
}

// WithUserMessage sets a user-friendly message
func (e *AppError) WithUserMessage(msg string) *AppError {
	clone := *e
	clone.UserMessage = msg
	return &clone
}

// Log logs the error with its context attached
func (e *AppError) Log() {
	contextStr := ""
	if len(e.Context) > 0 {
		var parts []string
		for k, v := range e.Context {
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		}
		contextStr = strings.Join(parts, ", ")
	}

	evt := log.Error().Str("type", string(e.Type)).Str("code", e.Code)
	if contextStr != "" {
		evt = evt.Str("context", contextStr)
	}
	evt.Msg(e.Error())
}

// New creates a new AppError
func New(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:        errType,
		Code:        code,
		Message:     message,
		InternalErr: err,
	}
}

// Predefined errors for common scenarios
var (
	ErrNoteNotFound = New(ErrTypeNotFound, "NOTE_NOT_FOUND", "note not found").
			WithUserMessage("The requested note could not be found")

	ErrCategoryBlank = New(ErrTypeValidation, "CATEGORY_BLANK", "category name is blank").
				WithUserMessage("Category names cannot be empty")

	ErrRecordTooLarge = New(ErrTypeStorage, "RECORD_TOO_LARGE", "stored record exceeds storage engine limit").
				WithUserMessage("Saved data grew past the storage limit and had to be reset. Avoid embedding large images or media directly in notes")

	ErrStorageLoadFailed = New(ErrTypeStorage, "STORAGE_LOAD_FAILED", "failed to load stored data").
				WithUserMessage("Saved data could not be read and the app started with an empty collection")

	ErrStorageWriteFailed = New(ErrTypeStorage, "STORAGE_WRITE_FAILED", "failed to write record").
				WithUserMessage("Unable to save changes. Check disk space and permissions")

	ErrStorageClearFailed = New(ErrTypeStorage, "STORAGE_CLEAR_FAILED", "failed to clear storage").
				WithUserMessage("Stored data could not be fully cleared. Try resetting the app data manually")

	ErrConfigLoadFailed = New(ErrTypeConfig, "CONFIG_LOAD_FAILED", "failed to load configuration").
				WithUserMessage("Configuration file could not be loaded. Using defaults")
)
