package form

// Kind describes how a field's raw value should be interpreted by a renderer.
type Kind int

const (
	KindText         Kind = iota // Single-line text
	KindOptionalText             // Single-line text that may be left empty
	KindLongText                 // Multi-line text
	KindFile                     // Path to a file on disk
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindOptionalText:
		return "optional_text"
	case KindLongText:
		return "long_text"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Data maps field keys to their raw values.
type Data map[string]string

// Clone returns a copy of d.
func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Result is the outcome of running validators against a value.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"` // Set when Valid is false
	Note    string `json:"note,omitempty"`    // Positive indicator, only meaningful when Valid
}

// Pass is the zero-information passing result.
var Pass = Result{Valid: true}

// Fail returns a failing result with the given message.
func Fail(message string) Result {
	return Result{Message: message}
}

// Validator checks a single value. It may read other values from the form
// snapshot, which makes it a cross-field validator. Validators must be pure.
type Validator func(value string, form Data) Result

// Field declares one input of a wizard.
type Field struct {
	Key         string
	Label       string
	Kind        Kind
	Placeholder string
	Default     string
	Secret      bool // Rendered masked; never logged
	Validators  []Validator

	// Revalidates lists fields whose validators read this field. They are
	// re-run whenever this field changes.
	Revalidates []string
}

// Step declares one page of a wizard.
type Step struct {
	Index     int // 1-based
	Title     string
	FieldKeys []string
}

// FieldView is a read-only copy of a field's current state.
type FieldView struct {
	Key         string
	Label       string
	Kind        Kind
	Placeholder string
	Secret      bool
	Value       string
	Touched     bool
	Result      Result
}

// VisibleError returns the message a renderer should show: failures are only
// shown once the field has been touched.
func (f FieldView) VisibleError() string {
	if !f.Touched || f.Result.Valid {
		return ""
	}
	return f.Result.Message
}

// VisibleNote returns the positive indicator a renderer should show, if any.
func (f FieldView) VisibleNote() string {
	if !f.Touched || !f.Result.Valid {
		return ""
	}
	return f.Result.Note
}

// StepResult is the outcome of validating every field of a step.
type StepResult struct {
	Index  int               `json:"index"`
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
	Failed []string          `json:"failed,omitempty"` // Failing keys in declaration order
}
