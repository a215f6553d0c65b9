// Package form implements the multi-step form wizard engine.
//
// A Wizard owns an ordered set of fields and a linear sequence of steps. Callers
// push values in with UpdateField, move between steps with Advance and Retreat,
// and finish with Submit, which hands the accumulated values to an injected
// SubmitFunc. The engine never renders anything.
//
// Two kinds of failure are kept apart. A value that breaks a rule is ordinary
// data: it comes back as a Result with Valid set to false and a message meant
// for the person filling in the form. Misuse of the API itself, such as
// updating a field that was never declared or submitting from the first step,
// is reported through typed errors (UnknownFieldError, UnknownStepError,
// PrematureSubmissionError) and the sentinels ErrSubmissionInProgress and
// ErrAlreadySubmitted.
package form
