package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubmissionInProgress is returned by navigation and Submit while a
	// submission is outstanding.
	ErrSubmissionInProgress = errors.New("submission in progress")

	// ErrAlreadySubmitted is returned by Submit after a successful submission.
	ErrAlreadySubmitted = errors.New("form already submitted")

	// ErrNilSubmitFunc is returned by Submit when no submit function is given.
	ErrNilSubmitFunc = errors.New("nil submit function")
)

// UnknownFieldError reports a field key that was never declared.
type UnknownFieldError struct {
	Key string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Key)
}

// UnknownStepError reports a step index outside 1..Total.
type UnknownStepError struct {
	Index int
	Total int
}

func (e *UnknownStepError) Error() string {
	return fmt.Sprintf("step %d out of range 1..%d", e.Index, e.Total)
}

// PrematureSubmissionError reports a Submit call made before the final step
// or while fields still fail validation.
type PrematureSubmissionError struct {
	Step   int
	Total  int
	Errors map[string]string
	Failed []string
}

func (e *PrematureSubmissionError) Error() string {
	if e.Step < e.Total {
		return fmt.Sprintf("premature submission: on step %d of %d", e.Step, e.Total)
	}
	return fmt.Sprintf("premature submission: invalid fields: %s", strings.Join(e.Failed, ", "))
}

// IsContractViolation reports whether err signals misuse of the engine API
// rather than a problem with user input or the submission itself.
func IsContractViolation(err error) bool {
	var (
		unknownField *UnknownFieldError
		unknownStep  *UnknownStepError
		premature    *PrematureSubmissionError
	)
	return errors.As(err, &unknownField) ||
		errors.As(err, &unknownStep) ||
		errors.As(err, &premature) ||
		errors.Is(err, ErrSubmissionInProgress) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrNilSubmitFunc)
}
