package awsapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/smithy-go"
)

// ErrorCode returns the provider error code of err, or "" when err is not an
// API error.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsNotFound reports whether err is one of the eventual consistency "does not
// exist (yet)" errors that EC2 and IAM return right after a resource is
// created.
func IsNotFound(err error) bool {
	code := ErrorCode(err)
	if code == "" {
		return false
	}
	switch code {
	case "NoSuchEntity", "InvalidGroup.NotFound", "InvalidKeyPair.NotFound":
		return true
	}
	return strings.HasSuffix(code, "NotFound")
}

// IsCode reports whether err carries the given provider error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Describe renders the provider code and message verbatim, falling back to
// err.Error() for non API errors.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage())
	}
	return err.Error()
}

// RetryExhaustedError is returned when a bounded wait for a resource ran out.
type RetryExhaustedError struct {
	Resource string
	Wait     time.Duration
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	msg := fmt.Sprintf("%s not available after %s", e.Resource, e.Wait)
	if e.Err != nil {
		msg += ": " + Describe(e.Err)
	}
	return msg
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }
