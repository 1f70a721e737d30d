/**
 * Custom error types for the PhotoScan capture/recognition pipeline
 *
 * Every fault crossing the workflow boundary is one of these codes. The
 * workflow converts them into its Error stage with a user-facing message;
 * faults outside the taxonomy fall back to a generic message.
 */

package errors

import (
	"errors"
	"fmt"
	"time"
)

// Code enum for structured error handling
type Code string

const (
	// Camera errors
	CodeNoCamera         Code = "NO_CAMERA"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeNotSupported     Code = "NOT_SUPPORTED"
	CodeDeviceError      Code = "DEVICE_ERROR"

	// Recognition errors
	CodeInitializationFailed Code = "INITIALIZATION_FAILED"
	CodeProcessingFailed     Code = "PROCESSING_FAILED"
	CodeNoTextFound          Code = "NO_TEXT_FOUND"

	// Frame errors
	CodeInvalidImage Code = "INVALID_IMAGE"
)

// ScanError represents a structured pipeline error
type ScanError struct {
	Code      Code
	Message   string
	SessionID string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *ScanError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScanError) Unwrap() error {
	return e.Cause
}

// CodeOf extracts the taxonomy code from an error chain. The second return
// is false for faults outside the taxonomy.
func CodeOf(err error) (Code, bool) {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}

// userMessages maps each code to the guidance shown to the user. NO_TEXT_FOUND
// gets different guidance than PROCESSING_FAILED: it is an expected outcome
// (bad lighting, blank page), not a malfunction.
var userMessages = map[Code]string{
	CodeNoCamera:             "No camera was found on this device.",
	CodePermissionDenied:     "Camera access was denied. Please allow camera access and try again.",
	CodeNotSupported:         "Camera capture is not supported on this device.",
	CodeDeviceError:          "The camera could not be started. Please try again.",
	CodeInitializationFailed: "The text recognizer could not be started. Please try again.",
	CodeProcessingFailed:     "Text recognition failed. Please try again with a clearer photo.",
	CodeNoTextFound:          "No text was found in the photo. Try better lighting or move closer.",
	CodeInvalidImage:         "The captured photo was unusable. Please retake it.",
}

// GenericMessage is the fallback for faults outside the taxonomy.
const GenericMessage = "Something went wrong. Please try again."

// UserMessage returns the user-facing guidance for an error, falling back to
// GenericMessage for unknown codes and non-taxonomy errors.
func UserMessage(err error) string {
	if code, ok := CodeOf(err); ok {
		if msg, ok := userMessages[code]; ok {
			return msg
		}
	}
	return GenericMessage
}

// Factory functions for common errors

func NewNoCameraError(sessionID string) *ScanError {
	return &ScanError{
		Code:      CodeNoCamera,
		Message:   "No video input device present",
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

func NewPermissionDeniedError(sessionID string, cause error) *ScanError {
	return &ScanError{
		Code:      CodePermissionDenied,
		Message:   "Camera access denied by user or platform",
		SessionID: sessionID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewNotSupportedError(sessionID string) *ScanError {
	return &ScanError{
		Code:      CodeNotSupported,
		Message:   "Media capture capability is not available",
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

func NewDeviceError(sessionID string, cause error) *ScanError {
	return &ScanError{
		Code:      CodeDeviceError,
		Message:   "Failed to acquire camera stream",
		SessionID: sessionID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewInitializationFailedError(sessionID string, cause error) *ScanError {
	return &ScanError{
		Code:      CodeInitializationFailed,
		Message:   "OCR engine failed to start",
		SessionID: sessionID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewProcessingFailedError(sessionID string, cause error) *ScanError {
	return &ScanError{
		Code:      CodeProcessingFailed,
		Message:   "Text recognition failed",
		SessionID: sessionID,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewNoTextFoundError(sessionID string) *ScanError {
	return &ScanError{
		Code:      CodeNoTextFound,
		Message:   "Recognition completed but produced no usable text",
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

func NewInvalidImageError(sessionID string, width, height int) *ScanError {
	return &ScanError{
		Code:      CodeInvalidImage,
		Message:   "Captured frame is malformed",
		SessionID: sessionID,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"width":  width,
			"height": height,
		},
	}
}

// ToMap converts the error to a map for structured logging
func (e *ScanError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
