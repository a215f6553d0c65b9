// Package wizard renders a form.Wizard in the terminal. It owns no form
// state of its own: every keystroke that changes a value is pushed into the
// engine, and everything on screen is read back from it.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	uv "github.com/charmbracelet/ultraviolet"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/logger"
	"github.com/caibook/caibook/internal/tui/theme"
)

// Result is what the wizard reports once the program exits.
type Result struct {
	Session   string
	Status    form.Status
	Err       error
	Cancelled bool
}

// Model is the BubbleTea model for one wizard session.
type Model struct {
	ctx    context.Context
	flow   flows.Flow
	wizard *form.Wizard
	submit form.SubmitFunc

	inputs map[string]*fieldInput
	focus  int // Index into the current step's fields

	spinner spinner.Model
	banner  string // Message for the last failed submit attempt
	width   int
	height  int

	reviewSrc      string // Markdown the cached review was rendered from
	reviewRendered string

	done      bool
	cancelled bool
}

// New creates a model for an existing wizard session.
func New(ctx context.Context, flow flows.Flow, w *form.Wizard, submit form.SubmitFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Primary))

	m := &Model{
		ctx:     ctx,
		flow:    flow,
		wizard:  w,
		submit:  submit,
		inputs:  make(map[string]*fieldInput),
		spinner: s,
		width:   80,
		height:  24,
	}
	for _, f := range w.Fields() {
		m.inputs[f.Key] = newFieldInput(f, m.inputWidth())
	}
	return m
}

// Run starts a standalone BubbleTea program for the wizard and blocks until
// the user submits successfully or leaves.
func Run(ctx context.Context, flow flows.Flow, w *form.Wizard, submit form.SubmitFunc) (*Result, error) {
	m := New(ctx, flow, w, submit)

	finalModel, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	final, ok := finalModel.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected model type")
	}
	return final.Result(), nil
}

// Result reports the session outcome as seen by the model.
func (m *Model) Result() *Result {
	return &Result{
		Session:   m.wizard.SessionID(),
		Status:    m.wizard.Status(),
		Err:       m.wizard.LastError(),
		Cancelled: m.cancelled,
	}
}

// Init focuses the first field.
func (m *Model) Init() tea.Cmd {
	return m.focusField(0)
}

// Update handles messages for the wizard.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		for _, in := range m.inputs {
			in.SetWidth(m.inputWidth())
		}
		return m, nil

	case spinner.TickMsg:
		if m.wizard.Status() != form.StatusSubmitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SubmitDoneMsg:
		if msg.Outcome.Err != nil {
			m.banner = "Submission failed: " + msg.Outcome.Err.Error()
			return m, m.focusField(m.focus)
		}
		m.banner = ""
		m.done = true
		return m, nil

	case FieldEditedMsg:
		if in, ok := m.inputs[msg.Key]; ok {
			content := strings.TrimRight(msg.Content, "\n")
			in.SetValue(content)
			m.push(msg.Key, content)
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	// Forward anything else (paste, cursor blink) to the focused input.
	if m.wizard.Status() == form.StatusSubmitting {
		return m, nil
	}
	return m, m.forward(msg)
}

// forward hands msg to the focused input and pushes any value change.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	in := m.focused()
	if in == nil {
		return nil
	}
	before := in.Value()
	cmd := in.Update(msg)
	if after := in.Value(); after != before {
		m.push(in.key, after)
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	k := msg.String()
	if k == "ctrl+c" {
		m.cancelled = !m.done
		return m, tea.Quit
	}

	if m.done {
		switch k {
		case "enter", "esc", "q":
			return m, tea.Quit
		}
		return m, nil
	}

	// Everything but quitting waits while a submission is outstanding.
	if m.wizard.Status() == form.StatusSubmitting {
		return m, nil
	}

	in := m.focused()
	switch k {
	case "esc":
		if m.wizard.CurrentStep() == 1 {
			m.cancelled = true
			return m, tea.Quit
		}
		if err := m.wizard.Retreat(); err != nil {
			m.banner = err.Error()
			return m, nil
		}
		m.banner = ""
		return m, m.layoutStep(0)
	case "tab":
		return m, m.focusField(m.focus + 1)
	case "shift+tab":
		return m, m.focusField(m.focus - 1)
	case "down":
		if in != nil && !in.multiline {
			return m, m.focusField(m.focus + 1)
		}
	case "up":
		if in != nil && !in.multiline {
			return m, m.focusField(m.focus - 1)
		}
	case "ctrl+s":
		return m, m.primary()
	case "ctrl+e":
		if in != nil && in.canEdit() {
			return m, in.openEditor()
		}
		return m, nil
	case "enter":
		if in == nil || !in.multiline {
			if m.focus < len(m.stepKeys())-1 {
				return m, m.focusField(m.focus + 1)
			}
			return m, m.primary()
		}
	}

	return m, m.forward(msg)
}

// push sends a value into the engine.
func (m *Model) push(key, value string) {
	if _, err := m.wizard.UpdateField(key, value); err != nil {
		logger.Error("update field %s: %v", key, err)
	}
}

// primary runs the main action of the current step: Next or Submit.
func (m *Model) primary() tea.Cmd {
	step := m.wizard.CurrentStep()
	if step < m.wizard.TotalSteps() {
		res, err := m.wizard.Advance()
		if err != nil {
			m.banner = err.Error()
			return nil
		}
		if !res.Valid {
			return m.focusKey(res.Failed[0])
		}
		m.banner = ""
		return m.layoutStep(0)
	}
	return m.startSubmit()
}

func (m *Model) startSubmit() tea.Cmd {
	ch, err := m.wizard.Submit(m.ctx, m.submit)
	if err != nil {
		var premature *form.PrematureSubmissionError
		if errors.As(err, &premature) && len(premature.Failed) > 0 {
			m.banner = "Some fields need attention: " + m.labels(premature.Failed)
			return m.focusKey(premature.Failed[0])
		}
		m.banner = err.Error()
		return nil
	}

	m.banner = ""
	if in := m.focused(); in != nil {
		in.Blur()
	}
	return tea.Batch(m.spinner.Tick, waitForOutcome(ch))
}

func waitForOutcome(ch <-chan form.Outcome) tea.Cmd {
	return func() tea.Msg {
		return SubmitDoneMsg{Outcome: <-ch}
	}
}

// focusKey focuses key when it belongs to the current step.
func (m *Model) focusKey(key string) tea.Cmd {
	for i, k := range m.stepKeys() {
		if k == key {
			return m.focusField(i)
		}
	}
	return nil
}

// layoutStep re-reads the current step after navigation and focuses field i.
func (m *Model) layoutStep(i int) tea.Cmd {
	for _, in := range m.inputs {
		in.Blur()
	}
	m.focus = 0
	return m.focusField(i)
}

// focusField focuses field i of the current step, wrapping around.
func (m *Model) focusField(i int) tea.Cmd {
	keys := m.stepKeys()
	if len(keys) == 0 {
		return nil
	}
	if cur := m.focused(); cur != nil {
		cur.Blur()
	}
	m.focus = ((i % len(keys)) + len(keys)) % len(keys)
	return m.inputs[keys[m.focus]].Focus()
}

func (m *Model) focused() *fieldInput {
	keys := m.stepKeys()
	if m.focus < 0 || m.focus >= len(keys) {
		return nil
	}
	return m.inputs[keys[m.focus]]
}

func (m *Model) stepKeys() []string {
	step, err := m.wizard.Step(m.wizard.CurrentStep())
	if err != nil {
		return nil
	}
	return step.FieldKeys
}

func (m *Model) labels(keys []string) string {
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		if f, err := m.wizard.Field(k); err == nil {
			labels = append(labels, f.Label)
		}
	}
	return strings.Join(labels, ", ")
}

func (m *Model) modalWidth() int {
	w := m.width - 10
	if w < 60 {
		w = 60
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m *Model) inputWidth() int {
	return m.modalWidth() - 8 // Border + padding
}

// View renders the wizard UI.
func (m *Model) View() tea.View {
	var view tea.View
	view.AltScreen = true

	var content string
	if m.done {
		content = m.renderDone()
	} else {
		content = m.renderStep()
	}

	modal := theme.Current().S().ModalContainer.Width(m.modalWidth()).Render(content)
	placed := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)

	canvas := uv.NewScreenBuffer(m.width, m.height)
	uv.NewStyledString(placed).Draw(canvas, uv.Rectangle{
		Min: uv.Position{X: 0, Y: 0},
		Max: uv.Position{X: m.width, Y: m.height},
	})

	view.Content = lipgloss.NewLayer(canvas.Render())
	return view
}

func (m *Model) renderStep() string {
	s := theme.Current().S()
	w := m.wizard
	step := w.CurrentStep()
	info, _ := w.Step(step)

	var sections []string
	sections = append(sections, s.ModalTitle.Render(m.flow.Title))
	sections = append(sections, renderStepIndicator(step, w.TotalSteps(), info.Title))
	sections = append(sections, "")

	if step == w.TotalSteps() && step > 1 {
		if review := m.review(); review != "" {
			sections = append(sections, review, "")
		}
	}

	fields, _ := w.StepFields(step)
	for i, f := range fields {
		label := f.Label
		if f.Kind == form.KindOptionalText || f.Kind == form.KindFile {
			label += " (optional)"
		}
		if i == m.focus {
			sections = append(sections, s.LabelFocused.Render("› "+label))
		} else {
			sections = append(sections, s.Label.Render("  "+label))
		}
		sections = append(sections, "  "+m.inputs[f.Key].View())

		switch {
		case f.VisibleError() != "":
			sections = append(sections, "  "+s.FieldError.Render("✗ "+f.VisibleError()))
		case f.VisibleNote() != "":
			sections = append(sections, "  "+s.FieldNote.Render("✓ "+f.VisibleNote()))
		default:
			sections = append(sections, "")
		}
	}

	if m.banner != "" {
		sections = append(sections, s.Banner.Render(m.banner), "")
	}

	if w.Status() == form.StatusSubmitting {
		sections = append(sections, m.spinner.View()+" Submitting...")
	} else {
		res, _ := w.ValidateStep(step)
		bar := NewButtonBar(navButtons(step, w.TotalSteps(), res.Valid, m.flow.SubmitLabel))
		bar.SetWidth(m.inputWidth())
		sections = append(sections, bar.Render())
	}
	sections = append(sections, "", m.hints())

	return strings.Join(sections, "\n")
}

func (m *Model) hints() string {
	pairs := []string{"tab", "next field", "enter", "next"}
	if m.wizard.CurrentStep() == m.wizard.TotalSteps() {
		pairs[3] = "submit"
	}
	if in := m.focused(); in != nil && in.canEdit() {
		pairs = append(pairs, "ctrl+e", "editor")
	}
	if m.wizard.CurrentStep() == 1 {
		pairs = append(pairs, "esc", "cancel")
	} else {
		pairs = append(pairs, "esc", "back")
	}
	return renderHintBar(pairs...)
}

func (m *Model) review() string {
	src := reviewMarkdown(m.wizard, m.wizard.CurrentStep())
	if src == "" {
		return ""
	}
	if src != m.reviewSrc {
		m.reviewSrc = src
		m.reviewRendered = renderMarkdown(src, m.inputWidth())
	}
	return m.reviewRendered
}

func (m *Model) renderDone() string {
	s := theme.Current().S()
	lines := []string{
		s.ModalTitle.Render(m.flow.Title),
		"",
		s.Success.Render("✓ " + m.flow.SubmitLabel + " complete"),
		"",
		s.Label.Render("Session " + m.wizard.SessionID()),
		"",
		renderHintBar("enter", "close"),
	}
	return strings.Join(lines, "\n")
}
