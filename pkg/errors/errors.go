// Package errors provides the structured error type used inside the Dokan layer.
// Errors stay typed while they travel inside the process and are only turned into
// numeric driver statuses at the native boundary.
package errors

import (
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a structured error code.
type ErrorCode string

// Error code constants organized by category.
const (
	// Configuration errors
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrCodeConfigLoad       ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigSave       ErrorCode = "CONFIG_SAVE"

	// Mount errors, one per DokanMain failure result
	ErrCodeMountFailed         ErrorCode = "MOUNT_FAILED"
	ErrCodeDriveLetterInvalid  ErrorCode = "MOUNT_DRIVE_LETTER_INVALID"
	ErrCodeDriverInstallFailed ErrorCode = "MOUNT_DRIVER_INSTALL_FAILED"
	ErrCodeStartFailed         ErrorCode = "MOUNT_START_FAILED"
	ErrCodeMountPointInvalid   ErrorCode = "MOUNT_POINT_INVALID"
	ErrCodeUnmountFailed       ErrorCode = "UNMOUNT_FAILED"
	ErrCodeAlreadyMounted      ErrorCode = "STATE_ALREADY_MOUNTED"
	ErrCodeNotMounted          ErrorCode = "STATE_NOT_MOUNTED"

	// Dispatch errors
	ErrCodeMarshalFailed  ErrorCode = "DISPATCH_MARSHAL_FAILED"
	ErrCodePanicRecovered ErrorCode = "DISPATCH_PANIC_RECOVERED"
	ErrCodeHandlerMissing ErrorCode = "DISPATCH_HANDLER_MISSING"

	// Platform errors
	ErrCodeUnsupportedPlatform ErrorCode = "PLATFORM_UNSUPPORTED"
	ErrCodeDriverUnavailable   ErrorCode = "PLATFORM_DRIVER_UNAVAILABLE"

	// Internal errors
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryMount         ErrorCategory = "mount"
	CategoryState         ErrorCategory = "state"
	CategoryDispatch      ErrorCategory = "dispatch"
	CategoryPlatform      ErrorCategory = "platform"
	CategoryInternal      ErrorCategory = "internal"
)

// DokanError represents a structured error with context and metadata.
type DokanError struct {
	Code     ErrorCode              `json:"code"`
	Category ErrorCategory          `json:"category"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`

	Context   map[string]string `json:"context,omitempty"`
	Cause     error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`

	Component string `json:"component"`
	Operation string `json:"operation,omitempty"`

	// Status is the driver status this error was reported as, if any.
	Status int32 `json:"status,omitempty"`

	Stack string `json:"stack,omitempty"`
}

// Error implements the error interface.
func (e *DokanError) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error wrapping compatibility.
func (e *DokanError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error (for errors.Is compatibility).
func (e *DokanError) Is(target error) bool {
	if other, ok := target.(*DokanError); ok {
		return e.Code == other.Code
	}
	return false
}

// String returns a detailed string representation for logging.
func (e *DokanError) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Code=%s", e.Code))
	parts = append(parts, fmt.Sprintf("Category=%s", e.Category))
	parts = append(parts, fmt.Sprintf("Message=%q", e.Message))

	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if e.Status != 0 {
		parts = append(parts, fmt.Sprintf("Status=%d", e.Status))
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}

	return fmt.Sprintf("DokanError{%s}", strings.Join(parts, ", "))
}

// JSON returns the error as a JSON string.
func (e *DokanError) JSON() string {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf(`{"error":"failed to marshal error: %s"}`, err.Error())
	}
	return string(data)
}

// NewError creates a new error with default values.
func NewError(code ErrorCode, message string) *DokanError {
	return &DokanError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
		Context:   make(map[string]string),
	}
}

// Wrap creates a new error with the given cause.
func Wrap(cause error, code ErrorCode, message string) *DokanError {
	return NewError(code, message).WithCause(cause)
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "INVALID_CONFIG") || strings.HasPrefix(codeStr, "CONFIG_"):
		return CategoryConfiguration
	case strings.HasPrefix(codeStr, "MOUNT_") || strings.HasPrefix(codeStr, "UNMOUNT_"):
		return CategoryMount
	case strings.HasPrefix(codeStr, "STATE_"):
		return CategoryState
	case strings.HasPrefix(codeStr, "DISPATCH_"):
		return CategoryDispatch
	case strings.HasPrefix(codeStr, "PLATFORM_"):
		return CategoryPlatform
	default:
		return CategoryInternal
	}
}

// MountError converts a failing DokanMain result into a typed error.
// It returns nil for 0.
func MountError(result int32) *DokanError {
	var (
		code    ErrorCode
		message string
	)
	switch result {
	case 0:
		return nil
	case -1:
		code, message = ErrCodeMountFailed, "dokan reported a general error"
	case -2:
		code, message = ErrCodeDriveLetterInvalid, "bad drive letter"
	case -3:
		code, message = ErrCodeDriverInstallFailed, "cannot install the dokan driver"
	case -4:
		code, message = ErrCodeStartFailed, "the dokan driver failed to start"
	case -5:
		code, message = ErrCodeMountFailed, "cannot assign a drive letter or mount point"
	case -6:
		code, message = ErrCodeMountPointInvalid, "mount point is invalid"
	default:
		code, message = ErrCodeMountFailed, fmt.Sprintf("unexpected dokan result %d", result)
	}
	err := NewError(code, message)
	err.Status = result
	return err
}

// CaptureStack captures the current stack trace for debugging, starting skip
// frames above its caller.
func CaptureStack(skip int) string {
	const depth = 16
	var pcs [depth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var stack []string
	for {
		frame, more := frames.Next()
		if !strings.HasSuffix(frame.File, "pkg/errors/errors.go") {
			stack = append(stack, fmt.Sprintf("%s:%d %s", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}
	return strings.Join(stack, "\n")
}

// WithContext adds contextual information to an error
func (e *DokanError) WithContext(key, value string) *DokanError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithDetail adds detailed information to an error
func (e *DokanError) WithDetail(key string, value interface{}) *DokanError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithComponent sets the component for an error
func (e *DokanError) WithComponent(component string) *DokanError {
	e.Component = component
	return e
}

// WithOperation sets the operation for an error
func (e *DokanError) WithOperation(operation string) *DokanError {
	e.Operation = operation
	return e
}

// WithCause sets the underlying cause
func (e *DokanError) WithCause(cause error) *DokanError {
	e.Cause = cause
	return e
}

// WithStatus records the driver status the error was reported as.
func (e *DokanError) WithStatus(status int32) *DokanError {
	e.Status = status
	return e
}

// WithStack captures the current stack trace
func (e *DokanError) WithStack() *DokanError {
	e.Stack = CaptureStack(1)
	return e
}

// GetRecommendation returns a user-friendly recommendation for fixing the error
func (e *DokanError) GetRecommendation() string {
	recommendations := map[ErrorCode]string{
		ErrCodeDriveLetterInvalid: "Use a free drive letter between D and Z, for example \"M:\\\".",
		ErrCodeDriverInstallFailed: "Reinstall the Dokan driver and reboot. " +
			"Installing the driver requires administrator rights.",
		ErrCodeStartFailed: "Check that the Dokan service is running (sc query dokan) " +
			"and that the library and driver versions match.",
		ErrCodeMountFailed:         "Make sure the drive letter or mount point is not already in use.",
		ErrCodeMountPointInvalid:   "Mount points must be an empty directory on an NTFS volume or a drive letter.",
		ErrCodeDriverUnavailable:   "dokan.dll could not be loaded. Install the Dokan library.",
		ErrCodeUnsupportedPlatform: "Dokan is only available on Windows.",
		ErrCodeInvalidConfig:       "Check your configuration file syntax and required parameters.",
	}

	if rec, exists := recommendations[e.Code]; exists {
		return rec
	}
	return "Please check the error message for details."
}
