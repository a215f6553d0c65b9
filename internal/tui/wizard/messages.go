package wizard

import "github.com/caibook/caibook/internal/form"

// SubmitDoneMsg carries the outcome of a submission started from the TUI.
type SubmitDoneMsg struct {
	Outcome form.Outcome
}

// FieldEditedMsg is sent when the external editor returns with new content
// for a field.
type FieldEditedMsg struct {
	Key     string
	Content string
}
