package util

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common error types for netdiscover
var (
	// ErrInvalidConfig indicates a configuration error
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoDeviceSelected indicates neither --device nor --seed was given (or both were)
	ErrNoDeviceSelected = errors.New("exactly one of --device or --seed is required")

	// ErrConnectionFailed indicates the device could not be reached
	ErrConnectionFailed = errors.New("connection failed")

	// ErrAuthFailed indicates the device rejected the credentials
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCommandFailed indicates the diagnostic command could not be executed
	ErrCommandFailed = errors.New("command failed")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrStoreClosed indicates the result store was already closed
	ErrStoreClosed = errors.New("result store closed")

	// ErrPoolStalled indicates the worker pool did not drain the queue in time
	ErrPoolStalled = errors.New("worker pool stalled")
)

// Process exit codes returned by ExitCode
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitConfig    = 2
	ExitFatal     = 3
	ExitStalled   = 4
	ExitCancelled = 130
)

// ConfigError is raised before any device is contacted
type ConfigError struct {
	Err error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a ConfigError. Errors that do not already
// carry ErrInvalidConfig or ErrNoDeviceSelected are joined with ErrInvalidConfig.
func NewConfigError(err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrInvalidConfig) && !errors.Is(err, ErrNoDeviceSelected) {
		err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &ConfigError{Err: err}
}

// DeviceError wraps an error with device context. It never leaves a worker.
type DeviceError struct {
	Hostname string
	Stage    string
	Err      error
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Stage == "" {
		return fmt.Sprintf("device %q: %v", e.Hostname, e.Err)
	}
	return fmt.Sprintf("device %q (%s): %v", e.Hostname, e.Stage, e.Err)
}

// Unwrap returns the wrapped error for errors.Is/As compatibility
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// WrapDeviceError wraps an error with device context
func WrapDeviceError(hostname, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &DeviceError{
		Hostname: hostname,
		Stage:    stage,
		Err:      err,
	}
}

// FatalError is the only error a worker surfaces to abort the whole pool
type FatalError struct {
	WorkerID int
	Err      error
}

// Error implements the error interface
func (e *FatalError) Error() string {
	return fmt.Sprintf("worker %d failed, cannot continue: %v", e.WorkerID, e.Err)
}

// Unwrap returns the wrapped error
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatalError creates a new worker fatal error
func NewFatalError(workerID int, err error) *FatalError {
	return &FatalError{
		WorkerID: workerID,
		Err:      err,
	}
}

// IsFatal checks if an error aborted the worker pool
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// MultiError aggregates multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:", len(m.Errors)))
	for i, err := range m.Errors {
		if i < 10 {
			sb.WriteString(fmt.Sprintf("\n  %d. %v", i+1, err))
		} else if i == 10 {
			sb.WriteString(fmt.Sprintf("\n  ... and %d more errors", len(m.Errors)-10))
			break
		}
	}
	return sb.String()
}

// Unwrap returns the errors for errors.Is/As compatibility
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add adds an error to the multi-error
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns nil if no errors were added, otherwise returns the MultiError
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}

// IsCancelled checks if an error is a cancellation error
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	return errors.Is(err, ErrConnectionFailed)
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}

// ExitCode maps an error returned by the CLI to a process exit status.
// Per-device failures never reach here; they are part of a completed run.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case IsConfigError(err):
		return ExitConfig
	case IsFatal(err):
		return ExitFatal
	case errors.Is(err, ErrPoolStalled):
		return ExitStalled
	case IsCancelled(err):
		return ExitCancelled
	default:
		return ExitFailure
	}
}

// FriendlyError converts technical errors to user-friendly messages
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrNoDeviceSelected):
		return "No target selected. Pass a single device with --device or a seed file with --seed."
	case IsConfigError(err):
		return fmt.Sprintf("Invalid configuration: %v. Check the file given with --config or NETDISCOVER_CONFIG_FILE.", errors.Unwrap(err))
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Check the file given with --config or NETDISCOVER_CONFIG_FILE."
	case IsFatal(err):
		return fmt.Sprintf("Discovery aborted: %v", err)
	case errors.Is(err, ErrPoolStalled):
		return "Discovery stalled: workers did not drain the queue before the drain timeout."
	case IsCancelled(err):
		return "Discovery was cancelled."
	case IsTimeout(err):
		return "Operation timed out. Increase command_timeout in the configuration file."
	case IsAuthError(err):
		return "Authentication failed. Check username and password in the configuration file."
	case IsConnectionError(err):
		return "Failed to connect to device. Check the hostname and network connectivity."
	default:
		return err.Error()
	}
}

// WrapErrorf wraps an error with a formatted message
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
