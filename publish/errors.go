package publish

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// WarningKind ...
type WarningKind string

const (
	// WarningInvalidResultFile is reported for a result file without readable results.
	WarningInvalidResultFile WarningKind = "InvalidResultFile"
	// WarningPublishFailed is reported for a contained read or publish failure.
	WarningPublishFailed WarningKind = "PublishFailed"
)

// Warning is a non-fatal problem of a publish invocation.
type Warning struct {
	Kind    WarningKind
	File    string
	Message string
}

func invalidResultFileWarning(file, runner string) Warning {
	return Warning{
		Kind:    WarningInvalidResultFile,
		File:    file,
		Message: fmt.Sprintf("Invalid results file. Make sure the result format of the file '%s' matches '%s' test results format.", file, runner),
	}
}

func publishFailedWarning(err *PublishError) Warning {
	message := fmt.Sprintf("Failed to publish %s test results: %s", err.Runner, failureMessage(err.Err))
	if err.File != "" {
		message = fmt.Sprintf("Failed to publish %s test results of '%s': %s", err.Runner, err.File, failureMessage(err.Err))
	}
	return Warning{
		Kind:    WarningPublishFailed,
		File:    err.File,
		Message: message,
	}
}

// PublishError is a failure of a single publish pipeline. File is empty when the failure
// is not tied to one result file.
type PublishError struct {
	File   string
	Runner string
	Err    error
}

func (e *PublishError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("failed to publish %s test results: %s", e.Runner, e.Err)
	}
	return fmt.Sprintf("failed to publish %s test results of %s: %s", e.Runner, e.File, e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// failureMessage appends the direct cause on a new line unless the message already contains it.
func failureMessage(err error) string {
	message := err.Error()
	if cause := errors.Unwrap(err); cause != nil && !strings.Contains(message, cause.Error()) {
		message += "\n" + cause.Error()
	}
	return message
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
