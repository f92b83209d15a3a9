package events

import (
	"errors"
	"strings"
)

type ValidationIssue struct{ Field, Reason string }

// ValidationError aggregates every rejected field of one payload.
// errors.Is(err, ErrInvalidContract) matches regardless of the issues.
type ValidationError struct{ Issues []ValidationIssue }

var ErrInvalidContract = errors.New("invalid contract")

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return ErrInvalidContract.Error()
	}
	var b strings.Builder
	b.WriteString(ErrInvalidContract.Error())
	sep := ": "
	for _, issue := range e.Issues {
		b.WriteString(sep)
		b.WriteString(issue.Field)
		b.WriteString(": ")
		b.WriteString(issue.Reason)
		sep = "; "
	}
	return b.String()
}

func (e *ValidationError) add(field, reason string) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Reason: reason})
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidContract }
