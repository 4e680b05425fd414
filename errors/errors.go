package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary errors that may be retried
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents errors due to invalid input or configuration
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Component lifecycle errors
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrShuttingDown   = errors.New("component is shutting down")

	// Bus transport errors
	ErrNotConnected      = errors.New("not connected to broker")
	ErrConnectionLost    = errors.New("connection lost")
	ErrConnectionTimeout = errors.New("connection timeout")
	ErrPublishFailed     = errors.New("publish failed")
	ErrSubscribeFailed   = errors.New("subscribe failed")

	// Field-bus errors
	ErrDeviceUnreachable = errors.New("device unreachable")
	ErrReadTimeout       = errors.New("read timeout")
	ErrWriteRejected     = errors.New("write rejected by device")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrMissingConfig = errors.New("missing required configuration")

	// Store errors
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPointNotFound    = errors.New("point not found")

	// Queue errors
	ErrQueueFull = errors.New("queue full")
)

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	if ce.Message != "" {
		return ce.Message
	}
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// ValidationError is a single accumulated command-validation failure.
// Field names the offending command attribute ("object", "semanticName",
// "writable", "priority", "value"); Message is operator-readable.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationErrors is the ordered set of failures a command collected
// before a decision was reached. A nil or empty set means acceptance.
type ValidationErrors []ValidationError

// Add appends a failure to the set.
func (ves *ValidationErrors) Add(field, format string, args ...any) {
	*ves = append(*ves, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Error implements the error interface
func (ves ValidationErrors) Error() string {
	if len(ves) == 0 {
		return "validation passed"
	}
	parts := make([]string, len(ves))
	for i, ve := range ves {
		parts[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ProtocolError records a failed field-bus operation. Op is "read" or
// "write"; Device is the protocol device identifier.
type ProtocolError struct {
	Op     string
	Device uint32
	Err    error
}

// Error implements the error interface
func (pe *ProtocolError) Error() string {
	return fmt.Sprintf("fieldbus %s on device %d: %v", pe.Op, pe.Device, pe.Err)
}

// Unwrap returns the underlying error
func (pe *ProtocolError) Unwrap() error {
	return pe.Err
}

// NewProtocolError wraps a field-bus failure with its operation context.
func NewProtocolError(op string, device uint32, err error) error {
	if err == nil {
		return nil
	}
	return &ProtocolError{Op: op, Device: device, Err: err}
}

// SinkError records a failed delivery to one named sink. Failures of one
// sink never affect delivery to the others.
type SinkError struct {
	Sink string
	Err  error
}

// Error implements the error interface
func (se *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", se.Sink, se.Err)
}

// Unwrap returns the underlying error
func (se *SinkError) Unwrap() error {
	return se.Err
}

// NewSinkError wraps a sink delivery failure with the sink name.
func NewSinkError(sink string, err error) error {
	if err == nil {
		return nil
	}
	return &SinkError{Sink: sink, Err: err}
}

// TransportError records a message-bus transport failure. It only ever
// changes connection state and pauses outbound delivery; it must never
// crash the worker.
type TransportError struct {
	Err error
}

// Error implements the error interface
func (te *TransportError) Error() string {
	return fmt.Sprintf("bus transport: %v", te.Err)
}

// Unwrap returns the underlying error
func (te *TransportError) Unwrap() error {
	return te.Err
}

// NewTransportError wraps a bus transport failure.
func NewTransportError(err error) error {
	if err == nil {
		return nil
	}
	return &TransportError{Err: err}
}

// IsValidation checks if an error carries accumulated validation failures
func IsValidation(err error) bool {
	var ves ValidationErrors
	var ve ValidationError
	return errors.As(err, &ves) || errors.As(err, &ve)
}

// IsProtocol checks if an error is a field-bus protocol failure
func IsProtocol(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// IsSink checks if an error is a sink delivery failure
func IsSink(err error) bool {
	var se *SinkError
	return errors.As(err, &se)
}

// IsTransport checks if an error is a bus transport failure
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsTransient checks if an error is transient and should be retried
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	// Check for classified error
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorTransient
	}

	// Domain taxonomy: sink and transport failures are retryable by
	// definition; protocol failures are reported, not retried; validation
	// failures are caller-correctable.
	if IsSink(err) || IsTransport(err) {
		return true
	}
	if IsProtocol(err) || IsValidation(err) {
		return false
	}

	// Check for known transient errors
	if errors.Is(err, ErrConnectionTimeout) ||
		errors.Is(err, ErrConnectionLost) ||
		errors.Is(err, ErrNotConnected) ||
		errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrQueueFull) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return true
	}

	// Check error message for common transient patterns
	errStr := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection",
		"network",
		"temporary",
		"unavailable",
		"busy",
		"retry",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorFatal
	}

	if errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrMissingConfig) {
		return true
	}

	return false
}

// IsInvalid checks if an error is due to invalid input
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == ErrorInvalid
	}

	return IsValidation(err)
}

// Classify returns the error class for an error
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorTransient // Default for nil
	}

	if IsInvalid(err) {
		return ErrorInvalid
	}
	if IsFatal(err) {
		return ErrorFatal
	}

	// Default to transient for unknown errors to allow retry
	return ErrorTransient
}

// newClassified creates a new classified error
// This is an internal helper - use WrapTransient(), WrapFatal(), or WrapInvalid() instead.
func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap creates a standardized error with context following the pattern:
// "component.method: action failed: %w"
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorTransient, wrappedErr, component, method, wrappedErr.Error())
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorFatal, wrappedErr, component, method, wrappedErr.Error())
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrappedErr := Wrap(err, component, method, action)
	return newClassified(ErrorInvalid, wrappedErr, component, method, wrappedErr.Error())
}
