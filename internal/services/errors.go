package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks failures against the upstream BMS system. The current
	// synchronize pass aborts and the next scheduled tick retries.
	ErrTransient = errors.New("transient failure")
	// ErrValidation marks lifecycle gate rejections surfaced to the operator.
	// No state is mutated when a validation error is returned.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a missing queue item or status registry entry.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks invariant collisions such as a duplicate queue number.
	// Callers retry these internally; they never reach the operator.
	ErrConflict = errors.New("conflict")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether an error should be absorbed and retried on the
// next scheduled run rather than surfaced to the operator.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrConflict)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
