package engine

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFormat is returned when a buffer matches no recognizer.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrIncompatibleFormats is returned when both inputs share a format code.
	ErrIncompatibleFormats = errors.New("same file types")

	// ErrStructuralFailure is returned when a format operation cannot lay out the
	// combination although the eligibility gates passed.
	ErrStructuralFailure = errors.New("structural failure")
)

// IneligibleError lists the gate constraints a pair of formats violates for a technique.
type IneligibleError struct {
	Technique  string
	Violations []string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("%s not applicable: %s", e.Technique, strings.Join(e.Violations, "; "))
}

// OverlapTooLargeError is returned when the shared prefix exceeds the threshold.
type OverlapTooLargeError struct {
	Length    int
	Threshold int
}

func (e *OverlapTooLargeError) Error() string {
	return fmt.Sprintf("overlap (length:%d) too long (threshold:%d)", e.Length, e.Threshold)
}
