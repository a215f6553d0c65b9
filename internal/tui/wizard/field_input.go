package wizard

import (
	"os"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/editor"

	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/tui/theme"
)

// fieldInput is the editing widget for one form field: a textarea for long
// text, a single-line textinput for everything else.
type fieldInput struct {
	key       string
	kind      form.Kind
	multiline bool
	text      textinput.Model
	area      textarea.Model
}

func newFieldInput(f form.FieldView, width int) *fieldInput {
	fi := &fieldInput{key: f.Key, kind: f.Kind}
	t := theme.Current()

	if f.Kind == form.KindLongText {
		ta := textarea.New()
		ta.Placeholder = f.Placeholder
		ta.ShowLineNumbers = false
		ta.Prompt = ""
		ta.SetHeight(4)

		styles := textarea.DefaultDarkStyles()
		styles.Cursor.Color = lipgloss.Color(t.Secondary)
		styles.Cursor.Shape = tea.CursorBlock
		ta.SetStyles(styles)
		ta.SetValue(f.Value)

		fi.multiline = true
		fi.area = ta
	} else {
		ti := textinput.New()
		ti.Placeholder = f.Placeholder
		ti.Prompt = ""
		if f.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		ti.SetStyles(textinput.Styles{
			Focused: textinput.StyleState{
				Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgBase)),
				Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
				Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.Secondary)),
			},
			Blurred: textinput.StyleState{
				Text:        lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)),
				Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
				Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)),
			},
			Cursor: textinput.CursorStyle{
				Color: lipgloss.Color(t.Primary),
				Shape: tea.CursorBar,
				Blink: true,
			},
		})
		ti.SetValue(f.Value)
		fi.text = ti
	}

	fi.SetWidth(width)
	return fi
}

func (fi *fieldInput) Focus() tea.Cmd {
	if fi.multiline {
		return fi.area.Focus()
	}
	return fi.text.Focus()
}

func (fi *fieldInput) Blur() {
	if fi.multiline {
		fi.area.Blur()
		return
	}
	fi.text.Blur()
}

func (fi *fieldInput) Value() string {
	if fi.multiline {
		return fi.area.Value()
	}
	return fi.text.Value()
}

func (fi *fieldInput) SetValue(v string) {
	if fi.multiline {
		fi.area.SetValue(v)
		return
	}
	fi.text.SetValue(v)
}

func (fi *fieldInput) SetWidth(w int) {
	if w < 20 {
		w = 20
	}
	if fi.multiline {
		fi.area.SetWidth(w)
		return
	}
	fi.text.SetWidth(w)
}

func (fi *fieldInput) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	if fi.multiline {
		fi.area, cmd = fi.area.Update(msg)
	} else {
		fi.text, cmd = fi.text.Update(msg)
	}
	return cmd
}

func (fi *fieldInput) View() string {
	if fi.multiline {
		return fi.area.View()
	}
	return fi.text.View()
}

// canEdit reports whether the field can be opened in $EDITOR.
func (fi *fieldInput) canEdit() bool {
	return fi.multiline && os.Getenv("EDITOR") != ""
}

// openEditor launches $EDITOR on the field's current value. The edited text
// comes back as a FieldEditedMsg.
func (fi *fieldInput) openEditor() tea.Cmd {
	tmpfile, err := os.CreateTemp("", "caibook_"+fi.key+"_*.txt")
	if err != nil {
		return nil
	}
	if _, err := tmpfile.WriteString(fi.Value()); err != nil {
		_ = tmpfile.Close()
		_ = os.Remove(tmpfile.Name())
		return nil
	}
	_ = tmpfile.Close()

	cmd, err := editor.Command("caibook", tmpfile.Name())
	if err != nil {
		_ = os.Remove(tmpfile.Name())
		return nil
	}

	path, fieldKey := tmpfile.Name(), fi.key
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer os.Remove(path)
		if err != nil {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		return FieldEditedMsg{Key: fieldKey, Content: string(content)}
	})
}
