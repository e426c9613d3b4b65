// ABOUTME: Error types for outreach campaigns
// ABOUTME: Configuration errors abort a run; transport errors are recorded per prospect
package outreach

import (
	"errors"
	"fmt"
)

// ConfigError is fatal and always raised before any send is attempted:
// missing credentials, unreadable template or input, unsupported format.
type ConfigError struct {
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError wraps err as a configuration failure for op.
func NewConfigError(op string, err error) error {
	return &ConfigError{Op: op, Err: err}
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// TransportError is a failed send for one recipient. It is logged as a
// bounce and the run continues.
type TransportError struct {
	Email string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s failed: %v", e.Email, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

var ErrMissingCredentials = errors.New("mail transport credentials are not configured")
