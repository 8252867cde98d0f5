// Package limits provides centralized outbound payload limits so validation
// stays consistent across components.
package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxMessageLength is the server's limit for a chat message body in bytes.
	MaxMessageLength = 4096

	// MaxGroupNameLength is the server's limit for a group name in bytes.
	MaxGroupNameLength = 128
)

var (
	// ErrMessageEmpty indicates an empty or whitespace-only body.
	ErrMessageEmpty = errors.New("empty message")

	// ErrMessageTooLarge indicates the body exceeds the maximum size.
	ErrMessageTooLarge = errors.New("message too large")
)

// ValidateMessage validates a chat message body against MaxMessageLength.
// Returns an error with the actual and maximum sizes for context.
func ValidateMessage(body string) error {
	if len(body) == 0 {
		return ErrMessageEmpty
	}
	if len(body) > MaxMessageLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(body), MaxMessageLength)
	}
	return nil
}

// ValidateGroupName validates a group name against MaxGroupNameLength.
func ValidateGroupName(name string) error {
	if len(name) == 0 {
		return ErrMessageEmpty
	}
	if len(name) > MaxGroupNameLength {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrMessageTooLarge, len(name), MaxGroupNameLength)
	}
	return nil
}
