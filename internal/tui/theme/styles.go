package theme

import "charm.land/lipgloss/v2"

// Styles contains the pre-built lipgloss styles for the wizard screens.
type Styles struct {
	ModalContainer lipgloss.Style
	ModalTitle     lipgloss.Style
	StepTitle      lipgloss.Style

	Label        lipgloss.Style
	LabelFocused lipgloss.Style
	Input        lipgloss.Style
	Placeholder  lipgloss.Style
	FieldError   lipgloss.Style
	FieldNote    lipgloss.Style
	Banner       lipgloss.Style
	Success      lipgloss.Style

	ButtonNormal   lipgloss.Style
	ButtonDisabled lipgloss.Style
	ButtonFocused  lipgloss.Style

	HintKey       lipgloss.Style
	HintDesc      lipgloss.Style
	HintSeparator lipgloss.Style
}
