package manager

import (
	"errors"
	"fmt"
)

// ErrorKind classifies reconciliation failures.
type ErrorKind string

const (
	KindConfig          ErrorKind = "config"
	KindNoPortAvailable ErrorKind = "no_port_available"
	KindPullFailed      ErrorKind = "pull_failed"
	KindStartFailed     ErrorKind = "start_failed"
	KindInspectFailed   ErrorKind = "inspect_failed"
	KindEngine          ErrorKind = "engine"
)

// OperationError is returned by EnsureRuntimeReady. Phase names the step of
// the reconciliation that failed.
type OperationError struct {
	Kind  ErrorKind
	Phase string
	Err   error
}

func (e *OperationError) Error() string {
	msg := "failed to manage model container"
	if e.Phase != "" {
		msg += ": " + e.Phase
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error { return e.Err }

// opError wraps err with kind and phase. An error that already carries a kind
// is returned unchanged so the innermost phase wins.
func opError(kind ErrorKind, phase string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	return &OperationError{Kind: kind, Phase: phase, Err: err}
}

func configError(format string, a ...any) error {
	return &OperationError{Kind: KindConfig, Phase: "validate config", Err: fmt.Errorf(format, a...)}
}

// KindOf returns the kind carried by err, or "" when err is not an OperationError.
func KindOf(err error) ErrorKind {
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}

// IsConfigError reports a missing or invalid configuration (not retryable).
func IsConfigError(err error) bool { return KindOf(err) == KindConfig }

// IsNoPortAvailable reports that the port range was exhausted.
func IsNoPortAvailable(err error) bool { return KindOf(err) == KindNoPortAvailable }

// IsPullFailed reports a registry or network failure while pulling the image.
func IsPullFailed(err error) bool { return KindOf(err) == KindPullFailed }

// IsStartFailed reports that the container never reached the running state.
func IsStartFailed(err error) bool { return KindOf(err) == KindStartFailed }

// IsInspectFailed reports a failed engine query (list/inspect).
func IsInspectFailed(err error) bool { return KindOf(err) == KindInspectFailed }
