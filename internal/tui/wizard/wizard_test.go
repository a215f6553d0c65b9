package wizard

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
)

func init() {
	lipgloss.Writer.Profile = colorprofile.Ascii
}

func newModel(t *testing.T, flow flows.Flow, submit form.SubmitFunc) *Model {
	t.Helper()
	w, err := flow.New(form.WithSessionID("session-tui"))
	require.NoError(t, err)
	m := New(context.Background(), flow, w, submit)
	m.Init()
	return m
}

func typeText(m *Model, s string) {
	for _, r := range s {
		m.Update(tea.KeyPressMsg{Code: r, Text: string(r)})
	}
}

func press(m *Model, code rune, mod ...tea.KeyMod) tea.Cmd {
	msg := tea.KeyPressMsg{Code: code}
	for _, md := range mod {
		msg.Mod |= md
	}
	_, cmd := m.Update(msg)
	return cmd
}

func TestTyping_PushesValuesIntoEngine(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })

	typeText(m, "ana@uc.cl")

	f, err := m.wizard.Field(flows.Email)
	require.NoError(t, err)
	assert.Equal(t, "ana@uc.cl", f.Value)
	assert.True(t, f.Touched)
	assert.True(t, f.Result.Valid)
}

func TestTabCyclesFocus(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })
	require.Equal(t, 0, m.focus)

	press(m, tea.KeyTab)
	assert.Equal(t, 1, m.focus)

	press(m, tea.KeyTab)
	assert.Equal(t, 0, m.focus, "focus wraps to the first field")

	press(m, tea.KeyTab, tea.ModShift)
	assert.Equal(t, 1, m.focus)
}

func TestInvalidStepBlocksNext(t *testing.T) {
	m := newModel(t, flows.GroupCreation(), func(context.Context, form.Data) error { return nil })

	press(m, 's', tea.ModCtrl)

	assert.Equal(t, 1, m.wizard.CurrentStep())
	assert.Equal(t, 0, m.focus, "first failing field is focused")
	out := m.renderStep()
	assert.Contains(t, out, "Group name is required.")
	assert.Contains(t, out, "Description is required.")
}

func TestNextAndBack(t *testing.T) {
	m := newModel(t, flows.GroupCreation(), func(context.Context, form.Data) error { return nil })

	typeText(m, "Club de Ajedrez")
	press(m, tea.KeyTab)
	typeText(m, "Weekly games")
	press(m, 's', tea.ModCtrl)

	require.Equal(t, 2, m.wizard.CurrentStep())
	assert.Equal(t, 0, m.focus)
	assert.Contains(t, m.renderStep(), "Step 2 of 3: Details")

	press(m, tea.KeyEscape)
	assert.Equal(t, 1, m.wizard.CurrentStep())
	assert.False(t, m.cancelled)

	// Values survive navigation.
	assert.Equal(t, "Club de Ajedrez", m.inputs[flows.GroupName].Value())
}

func TestEscOnFirstStepCancels(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })

	cmd := press(m, tea.KeyEscape)

	require.NotNil(t, cmd)
	assert.True(t, m.cancelled)
	assert.True(t, m.Result().Cancelled)
}

func TestCtrlCCancels(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })

	_, cmd := m.Update(tea.KeyPressMsg{Text: "ctrl+c"})

	require.NotNil(t, cmd)
	assert.True(t, m.cancelled)
}

func TestSubmitFromLastField(t *testing.T) {
	var calls atomic.Int32
	var got form.Data
	submit := func(_ context.Context, data form.Data) error {
		calls.Add(1)
		got = data
		return nil
	}
	m := newModel(t, flows.LogIn(""), submit)

	typeText(m, "ana@uc.cl")
	press(m, tea.KeyEnter) // Moves to the password field
	require.Equal(t, 1, m.focus)
	typeText(m, "hunter22")
	cmd := press(m, tea.KeyEnter)
	require.NotNil(t, cmd)

	require.Eventually(t, func() bool {
		return m.wizard.Status() == form.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "hunter22", got[flows.Password])

	m.Update(SubmitDoneMsg{Outcome: form.Outcome{Status: form.StatusSucceeded}})
	assert.True(t, m.done)
	assert.Contains(t, m.renderDone(), "session-tui")

	press(m, tea.KeyEnter)
	assert.False(t, m.Result().Cancelled)
	assert.Equal(t, form.StatusSucceeded, m.Result().Status)
}

func TestSubmitWithInvalidFieldsShowsBanner(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })

	typeText(m, "ana@gmail.com")
	press(m, 's', tea.ModCtrl)

	assert.Equal(t, form.StatusIdle, m.wizard.Status())
	assert.Contains(t, m.banner, "Email")
	assert.Contains(t, m.banner, "Password")
	assert.Contains(t, m.renderStep(), "Email must be an institutional address (@uc.cl).")
}

func TestFailedSubmissionShowsBannerAndAllowsRetry(t *testing.T) {
	var calls atomic.Int32
	submit := func(context.Context, form.Data) error {
		if calls.Add(1) == 1 {
			return errors.New("server unavailable")
		}
		return nil
	}
	m := newModel(t, flows.LogIn(""), submit)
	typeText(m, "ana@uc.cl")
	press(m, tea.KeyTab)
	typeText(m, "hunter22")

	press(m, 's', tea.ModCtrl)
	require.Eventually(t, func() bool {
		return m.wizard.Status() == form.StatusFailed
	}, 2*time.Second, 10*time.Millisecond)

	m.Update(SubmitDoneMsg{Outcome: form.Outcome{Status: form.StatusFailed, Err: errors.New("server unavailable")}})
	assert.False(t, m.done)
	assert.Equal(t, "Submission failed: server unavailable", m.banner)
	assert.Contains(t, m.renderStep(), "Submission failed: server unavailable")

	press(m, 's', tea.ModCtrl)
	require.Eventually(t, func() bool {
		return m.wizard.Status() == form.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
	assert.Empty(t, m.banner)
	assert.Equal(t, int32(2), calls.Load())
}

func TestKeysIgnoredWhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	submit := func(context.Context, form.Data) error {
		<-release
		return nil
	}
	m := newModel(t, flows.LogIn(""), submit)
	typeText(m, "ana@uc.cl")
	press(m, tea.KeyTab)
	typeText(m, "hunter22")
	press(m, 's', tea.ModCtrl)
	require.Equal(t, form.StatusSubmitting, m.wizard.Status())

	typeText(m, "x")
	assert.Equal(t, "hunter22", m.inputs[flows.Password].Value())
	assert.True(t, strings.Contains(m.renderStep(), "Submitting..."))

	close(release)
	require.Eventually(t, func() bool {
		return m.wizard.Status() == form.StatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSecretFieldIsMasked(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })
	press(m, tea.KeyTab)
	typeText(m, "hunter22")

	assert.NotContains(t, m.renderStep(), "hunter22")
}

func TestFieldEditedMsg(t *testing.T) {
	m := newModel(t, flows.GroupCreation(), func(context.Context, form.Data) error { return nil })

	m.Update(FieldEditedMsg{Key: flows.Description, Content: "From the editor\n"})

	f, err := m.wizard.Field(flows.Description)
	require.NoError(t, err)
	assert.Equal(t, "From the editor", f.Value)
	assert.Equal(t, "From the editor", m.inputs[flows.Description].Value())
}

func TestReviewOnLastStep(t *testing.T) {
	m := newModel(t, flows.GroupCreation(), func(context.Context, form.Data) error { return nil })
	m.Update(FieldEditedMsg{Key: flows.GroupName, Content: "Club de Ajedrez"})
	m.Update(FieldEditedMsg{Key: flows.Description, Content: "Weekly games"})
	press(m, 's', tea.ModCtrl)
	m.Update(FieldEditedMsg{Key: flows.Objective, Content: "Play chess"})
	press(m, 's', tea.ModCtrl)
	require.Equal(t, 3, m.wizard.CurrentStep())

	src := reviewMarkdown(m.wizard, 3)
	assert.Contains(t, src, "### General info")
	assert.Contains(t, src, "| Group name | Club de Ajedrez |")
	assert.Contains(t, src, "### Details")
	assert.NotContains(t, src, "### Finish")
}

func TestReviewValue(t *testing.T) {
	assert.Equal(t, "_(empty)_", reviewValue(form.FieldView{}))
	assert.Equal(t, "••••", reviewValue(form.FieldView{Value: "abcd", Secret: true}))
	assert.Equal(t, `a \| b`, reviewValue(form.FieldView{Value: "a | b"}))
	assert.Equal(t, "one two", reviewValue(form.FieldView{Value: "one\ntwo"}))

	long := reviewValue(form.FieldView{Value: strings.Repeat("x", 100)})
	assert.Equal(t, reviewValueLimit, len([]rune(long)))
	assert.True(t, strings.HasSuffix(long, "…"))
}

func TestWindowResize(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })

	m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})

	assert.Equal(t, 100, m.modalWidth())
	view := m.View()
	assert.True(t, view.AltScreen)
}

func TestPasteUpdatesEngine(t *testing.T) {
	m := newModel(t, flows.LogIn(""), func(context.Context, form.Data) error { return nil })

	m.Update(tea.PasteMsg{Content: "ana@uc.cl"})

	f, err := m.wizard.Field(flows.Email)
	require.NoError(t, err)
	assert.Equal(t, "ana@uc.cl", f.Value)
}
