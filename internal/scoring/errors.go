package scoring

import (
	"fmt"
	"strings"
)

// InvalidInputError: входные данные не позволяют посчитать балл.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

// IncompleteDataError: для части критериев нет оценок.
type IncompleteDataError struct {
	SubmissionID int
	Missing      []string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("submission %d has no scores for: %s", e.SubmissionID, strings.Join(e.Missing, ", "))
}

func invalid(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
