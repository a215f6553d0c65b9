package wizard

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"charm.land/glamour/v2"

	"github.com/caibook/caibook/internal/form"
)

const reviewValueLimit = 60

// reviewMarkdown builds a markdown summary of the values entered on the steps
// before the current one. Secret values are masked.
func reviewMarkdown(w *form.Wizard, upTo int) string {
	var b strings.Builder
	for i := 1; i < upTo; i++ {
		step, err := w.Step(i)
		if err != nil {
			continue
		}
		fields, _ := w.StepFields(i)

		fmt.Fprintf(&b, "### %s\n\n", step.Title)
		b.WriteString("| Field | Value |\n|---|---|\n")
		for _, f := range fields {
			fmt.Fprintf(&b, "| %s | %s |\n", f.Label, reviewValue(f))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func reviewValue(f form.FieldView) string {
	v := f.Value
	switch {
	case v == "":
		return "_(empty)_"
	case f.Secret:
		return strings.Repeat("•", utf8.RuneCountInString(v))
	}
	v = strings.Join(strings.Fields(v), " ")
	if utf8.RuneCountInString(v) > reviewValueLimit {
		v = string([]rune(v)[:reviewValueLimit-1]) + "…"
	}
	return strings.ReplaceAll(v, "|", "\\|")
}

// renderMarkdown renders markdown content using glamour.
// Falls back to plain text if rendering fails.
func renderMarkdown(content string, width int) string {
	if width > 120 {
		width = 120
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(rendered, "\n")
}
