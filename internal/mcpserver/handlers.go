package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/caibook/caibook/internal/form"
)

// FieldState is the agent-facing view of one field.
type FieldState struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Kind    string `json:"kind"`
	Value   string `json:"value"`
	Touched bool   `json:"touched"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
	Note    string `json:"note,omitempty"`
}

// State is the agent-facing view of the wizard.
type State struct {
	Flow       string       `json:"flow"`
	Session    string       `json:"session"`
	Step       int          `json:"step"`
	TotalSteps int          `json:"total_steps"`
	StepTitle  string       `json:"step_title"`
	Status     string       `json:"status"`
	LastError  string       `json:"last_error,omitempty"`
	Fields     []FieldState `json:"fields"`
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("form-state",
			mcp.WithDescription("Show the current step, its fields with their values and errors, and the submission status"),
		),
		s.handleFormState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("update-field",
			mcp.WithDescription("Set the value of a form field and return the validation results it caused"),
			mcp.WithString("key", mcp.Required(), mcp.Description("Field key, as listed by form-state")),
			mcp.WithString("value", mcp.Required(), mcp.Description("New raw value")),
		),
		s.handleUpdateField,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("advance",
			mcp.WithDescription("Move to the next step if the current step is valid; otherwise list the failing fields"),
		),
		s.handleAdvance,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("retreat",
			mcp.WithDescription("Go back to the previous step"),
		),
		s.handleRetreat,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("submit",
			mcp.WithDescription("Submit the form from the last step and wait for the outcome"),
		),
		s.handleSubmit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("reset",
			mcp.WithDescription("Discard the current form and start a new session"),
		),
		s.handleReset,
	)
}

func (s *Server) handleFormState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(snapshot(s.Wizard()))
}

func (s *Server) handleUpdateField(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}
	key, ok := args["key"].(string)
	if !ok || key == "" {
		return mcp.NewToolResultError("missing 'key' parameter"), nil
	}
	value, ok := args["value"].(string)
	if !ok {
		return mcp.NewToolResultError("missing 'value' parameter"), nil
	}

	w := s.Wizard()
	results, err := w.UpdateField(key, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	keys := make([]string, 0, len(results))
	for _, f := range w.Fields() {
		if _, ok := results[f.Key]; ok {
			keys = append(keys, f.Key)
		}
	}

	var b strings.Builder
	for _, k := range keys {
		r := results[k]
		switch {
		case !r.Valid:
			fmt.Fprintf(&b, "%s: invalid: %s\n", k, r.Message)
		case r.Note != "":
			fmt.Fprintf(&b, "%s: ok (%s)\n", k, r.Note)
		default:
			fmt.Fprintf(&b, "%s: ok\n", k)
		}
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w := s.Wizard()
	res, err := w.Advance()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !res.Valid {
		var b strings.Builder
		fmt.Fprintf(&b, "Step %d is not valid. Fix these fields:\n", res.Index)
		for _, key := range res.Failed {
			fmt.Fprintf(&b, "- %s: %s\n", key, res.Errors[key])
		}
		return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
	}

	step := w.CurrentStep()
	if step == res.Index {
		return mcp.NewToolResultText(fmt.Sprintf("Already on the last step (%d of %d). Call submit when ready.", step, w.TotalSteps())), nil
	}
	info, _ := w.Step(step)
	return mcp.NewToolResultText(fmt.Sprintf("Moved to step %d of %d: %s", step, w.TotalSteps(), info.Title)), nil
}

func (s *Server) handleRetreat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w := s.Wizard()
	if err := w.Retreat(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	step := w.CurrentStep()
	info, _ := w.Step(step)
	return mcp.NewToolResultText(fmt.Sprintf("On step %d of %d: %s", step, w.TotalSteps(), info.Title)), nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w := s.Wizard()
	if s.factory == nil {
		return mcp.NewToolResultError("submission is not configured"), nil
	}

	// The submission outlives this request; the engine owns its completion.
	ch, err := w.Submit(context.WithoutCancel(ctx), s.factory(s.flow, w.SessionID()))
	if err != nil {
		var premature *form.PrematureSubmissionError
		if errors.As(err, &premature) && len(premature.Failed) > 0 {
			var b strings.Builder
			b.WriteString("Cannot submit yet. Fix these fields:\n")
			for _, key := range premature.Failed {
				fmt.Fprintf(&b, "- %s: %s\n", key, premature.Errors[key])
			}
			return mcp.NewToolResultError(strings.TrimRight(b.String(), "\n")), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	select {
	case o := <-ch:
		if o.Err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Submission failed: %v. The form keeps its values; call submit again to retry.", o.Err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Submitted %s (session %s).", s.flow.Name, w.SessionID())), nil
	case <-ctx.Done():
		return mcp.NewToolResultText("Submission is still in progress; check form-state for the outcome."), nil
	}
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.Wizard().Status() == form.StatusSubmitting {
		return mcp.NewToolResultError(form.ErrSubmissionInProgress.Error()), nil
	}
	w, err := s.reset()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Started new %s session %s.", s.flow.Name, w.SessionID())), nil
}

func snapshot(w *form.Wizard) State {
	step := w.CurrentStep()
	info, _ := w.Step(step)
	st := State{
		Flow:       w.Name(),
		Session:    w.SessionID(),
		Step:       step,
		TotalSteps: w.TotalSteps(),
		StepTitle:  info.Title,
		Status:     string(w.Status()),
	}
	if err := w.LastError(); err != nil {
		st.LastError = err.Error()
	}

	fields, _ := w.StepFields(step)
	for _, f := range fields {
		value := f.Value
		if f.Secret {
			value = strings.Repeat("*", utf8.RuneCountInString(value))
		}
		st.Fields = append(st.Fields, FieldState{
			Key:     f.Key,
			Label:   f.Label,
			Kind:    f.Kind.String(),
			Value:   value,
			Touched: f.Touched,
			Valid:   f.Result.Valid,
			Error:   f.VisibleError(),
			Note:    f.VisibleNote(),
		})
	}
	return st
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
