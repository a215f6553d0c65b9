package wizard

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/caibook/caibook/internal/tui/theme"
)

// renderHintBar renders a hint bar with the given key-description pairs.
// Example: renderHintBar("tab", "next field", "esc", "back")
// Returns: "tab next field • esc back"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}

	s := theme.Current().S()
	var b strings.Builder
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			b.WriteString(" " + s.HintSeparator.Render("•") + " ")
		}
		b.WriteString(s.HintKey.Render(pairs[i]) + " " + s.HintDesc.Render(pairs[i+1]))
	}
	return b.String()
}

// renderStepIndicator renders "Step 2 of 3: Account" followed by one dot per
// step. Completed dots fade from the primary color to the success color.
func renderStepIndicator(step, total int, title string) string {
	t := theme.Current()
	s := t.S()

	dots := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		switch {
		case i < step:
			pos := float64(i) / float64(total)
			c := theme.InterpolateColor(t.Primary, t.Success, pos)
			dots = append(dots, lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("●"))
		case i == step:
			dots = append(dots, lipgloss.NewStyle().Foreground(lipgloss.Color(t.Primary)).Render("●"))
		default:
			dots = append(dots, lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted)).Render("○"))
		}
	}

	label := s.StepTitle.Render(fmt.Sprintf("Step %d of %d: %s", step, total, title))
	return label + "  " + strings.Join(dots, " ")
}
