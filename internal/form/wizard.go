package form

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/caibook/caibook/internal/logger"
)

// SubmitFunc delivers the accumulated form data. A nil return means success.
// Any timeout policy belongs to the implementation; the engine waits forever.
type SubmitFunc func(ctx context.Context, data Data) error

// Outcome is sent once on the channel returned by Submit.
type Outcome struct {
	Status Status
	Err    error
}

// Wizard is one form session: the declared fields, their values and touched
// flags, the current step, and the submission status. It is safe for
// concurrent use, though it is meant to be driven by a single caller.
type Wizard struct {
	mu sync.Mutex

	name      string
	sessionID string
	steps     []Step
	order     []string // Field keys in declaration order
	fields    map[string]*fieldState
	current   int
	status    *statusMachine
	lastErr   error
	log       *logger.Logger
}

type fieldState struct {
	def     Field
	value   string
	touched bool
	result  Result
}

// Option configures a Wizard.
type Option func(*Wizard)

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) Option {
	return func(w *Wizard) { w.sessionID = id }
}

// WithLogger sets the logger used for lifecycle messages.
func WithLogger(l *logger.Logger) Option {
	return func(w *Wizard) { w.log = l }
}

// New builds a wizard from its step and field declarations. Steps must be
// numbered 1..n in order, field keys must be unique, and every key referenced
// by a step or a Revalidates list must be declared.
func New(name string, steps []Step, fields []Field, opts ...Option) (*Wizard, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("wizard %s: no steps", name)
	}

	w := &Wizard{
		name:      name,
		sessionID: uuid.NewString(),
		steps:     make([]Step, len(steps)),
		fields:    make(map[string]*fieldState, len(fields)),
		current:   1,
		log:       logger.Default,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.With("wizard", name, "session", w.sessionID)
	w.status = newStatusMachine(w.log)

	for _, f := range fields {
		if f.Key == "" {
			return nil, fmt.Errorf("wizard %s: field with empty key", name)
		}
		if _, dup := w.fields[f.Key]; dup {
			return nil, fmt.Errorf("wizard %s: duplicate field %q", name, f.Key)
		}
		w.fields[f.Key] = &fieldState{def: f, value: f.Default}
		w.order = append(w.order, f.Key)
	}
	for _, f := range fields {
		for _, dep := range f.Revalidates {
			if _, ok := w.fields[dep]; !ok {
				return nil, fmt.Errorf("wizard %s: field %q revalidates unknown field %q", name, f.Key, dep)
			}
		}
	}

	for i, s := range steps {
		if s.Index != i+1 {
			return nil, fmt.Errorf("wizard %s: step %d has index %d", name, i+1, s.Index)
		}
		for _, key := range s.FieldKeys {
			if _, ok := w.fields[key]; !ok {
				return nil, fmt.Errorf("wizard %s: step %d references unknown field %q", name, s.Index, key)
			}
		}
		s.FieldKeys = append([]string(nil), s.FieldKeys...)
		w.steps[i] = s
	}

	data := w.dataLocked()
	for _, key := range w.order {
		w.evaluateLocked(key, data)
	}

	w.log.Debug("created with %d steps and %d fields", len(w.steps), len(w.order))
	return w, nil
}

// Name returns the wizard's name.
func (w *Wizard) Name() string { return w.name }

// SessionID returns the identifier of this form session.
func (w *Wizard) SessionID() string { return w.sessionID }

// TotalSteps returns the number of steps.
func (w *Wizard) TotalSteps() int { return len(w.steps) }

// CurrentStep returns the 1-based index of the current step.
func (w *Wizard) CurrentStep() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Steps returns the step declarations.
func (w *Wizard) Steps() []Step {
	out := make([]Step, len(w.steps))
	copy(out, w.steps)
	return out
}

// Step returns the declaration of step index.
func (w *Wizard) Step(index int) (Step, error) {
	if index < 1 || index > len(w.steps) {
		return Step{}, &UnknownStepError{Index: index, Total: len(w.steps)}
	}
	return w.steps[index-1], nil
}

// Field returns the current state of one field.
func (w *Wizard) Field(key string) (FieldView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	fs, ok := w.fields[key]
	if !ok {
		return FieldView{}, &UnknownFieldError{Key: key}
	}
	return fs.view(), nil
}

// Fields returns the state of every field in declaration order.
func (w *Wizard) Fields() []FieldView {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FieldView, 0, len(w.order))
	for _, key := range w.order {
		out = append(out, w.fields[key].view())
	}
	return out
}

// StepFields returns the state of the fields on step index.
func (w *Wizard) StepFields(index int) ([]FieldView, error) {
	step, err := w.Step(index)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]FieldView, 0, len(step.FieldKeys))
	for _, key := range step.FieldKeys {
		out = append(out, w.fields[key].view())
	}
	return out, nil
}

// VisibleError returns the message a renderer should show next to key. It is
// empty until the field is touched.
func (w *Wizard) VisibleError(key string) (string, error) {
	f, err := w.Field(key)
	if err != nil {
		return "", err
	}
	return f.VisibleError(), nil
}

// Matched reports whether key carries a visible positive note, such as a
// confirmation that equals its original.
func (w *Wizard) Matched(key string) (bool, error) {
	f, err := w.Field(key)
	if err != nil {
		return false, err
	}
	return f.VisibleNote() != "", nil
}

// Data returns a copy of all field values.
func (w *Wizard) Data() Data {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dataLocked()
}

// Status returns the submission status.
func (w *Wizard) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status.current()
}

// LastError returns the error of the most recent failed submission. It is
// cleared when a new submission starts.
func (w *Wizard) LastError() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastErr
}

// UpdateField sets the value of key, marks it touched, and re-runs its
// validators along with those of every field it revalidates. The returned map
// holds the new result of each re-evaluated field. Fields reached only through
// Revalidates are not marked touched.
func (w *Wizard) UpdateField(key, value string) (map[string]Result, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	fs, ok := w.fields[key]
	if !ok {
		return nil, &UnknownFieldError{Key: key}
	}
	fs.value = value
	fs.touched = true

	data := w.dataLocked()
	results := map[string]Result{key: w.evaluateLocked(key, data)}
	for _, dep := range fs.def.Revalidates {
		results[dep] = w.evaluateLocked(dep, data)
	}

	if !fs.def.Secret {
		w.log.Debug("field %s updated valid=%t", key, results[key].Valid)
	}
	return results, nil
}

// Touch marks every field of step index as touched without changing values.
func (w *Wizard) Touch(index int) error {
	step, err := w.Step(index)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, key := range step.FieldKeys {
		w.fields[key].touched = true
	}
	return nil
}

// ValidateStep runs the validators of every field on step index against the
// current values. It does not change any state: results are computed but
// neither cached nor marked touched.
func (w *Wizard) ValidateStep(index int) (StepResult, error) {
	step, err := w.Step(index)
	if err != nil {
		return StepResult{}, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.checkLocked(step, w.dataLocked()), nil
}

// Advance moves to the next step when the current one validates. At the last
// step a valid Advance is a no-op. When the step is invalid its fields are
// marked touched so errors become visible, and the step does not change.
func (w *Wizard) Advance() (StepResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status.current() == StatusSubmitting {
		return StepResult{}, ErrSubmissionInProgress
	}

	step := w.steps[w.current-1]
	res := w.validateLocked(step, w.dataLocked())
	if !res.Valid {
		for _, key := range step.FieldKeys {
			w.fields[key].touched = true
		}
		w.log.Debug("advance blocked on step %d: %v", w.current, res.Failed)
		return res, nil
	}
	if w.current < len(w.steps) {
		w.current++
		w.log.Debug("advanced to step %d", w.current)
	}
	return res, nil
}

// Retreat moves to the previous step, stopping at the first one. It is never
// blocked by validation.
func (w *Wizard) Retreat() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.status.current() == StatusSubmitting {
		return ErrSubmissionInProgress
	}
	if w.current > 1 {
		w.current--
		w.log.Debug("retreated to step %d", w.current)
	}
	return nil
}

// Submit hands a snapshot of the form data to fn on a new goroutine. It is only
// allowed from the last step with every step valid. The returned channel
// receives exactly one Outcome and is then closed.
//
// ctx is passed to fn unchanged; cancelling it is how a caller abandons a
// submission that never returns.
func (w *Wizard) Submit(ctx context.Context, fn SubmitFunc) (<-chan Outcome, error) {
	if fn == nil {
		return nil, ErrNilSubmitFunc
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	total := len(w.steps)
	if w.current < total {
		return nil, &PrematureSubmissionError{Step: w.current, Total: total}
	}
	switch w.status.current() {
	case StatusSubmitting:
		return nil, ErrSubmissionInProgress
	case StatusSucceeded:
		return nil, ErrAlreadySubmitted
	}

	data := w.dataLocked()
	premature := &PrematureSubmissionError{Step: w.current, Total: total, Errors: map[string]string{}}
	for _, step := range w.steps {
		res := w.validateLocked(step, data)
		for _, key := range res.Failed {
			premature.Errors[key] = res.Errors[key]
			premature.Failed = append(premature.Failed, key)
			w.fields[key].touched = true
		}
	}
	if len(premature.Failed) > 0 {
		return nil, premature
	}

	if err := w.status.begin(ctx); err != nil {
		return nil, err
	}
	w.lastErr = nil
	w.log.Info("submitting")

	done := make(chan Outcome, 1)
	go w.run(ctx, fn, data, done)
	return done, nil
}

func (w *Wizard) run(ctx context.Context, fn SubmitFunc, data Data, done chan<- Outcome) {
	defer close(done)

	err := w.call(ctx, fn, data)

	w.mu.Lock()
	if ferr := w.status.finish(ctx, err); ferr != nil {
		w.log.Error("status transition: %v", ferr)
	}
	w.lastErr = err
	status := w.status.current()
	w.mu.Unlock()

	if err != nil {
		w.log.Warn("submission failed: %v", err)
	} else {
		w.log.Info("submission succeeded")
	}
	done <- Outcome{Status: status, Err: err}
}

func (w *Wizard) call(ctx context.Context, fn SubmitFunc, data Data) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("submit panicked: %v", r)
		}
	}()
	return fn(ctx, data)
}

// validateLocked validates step and caches every field's result.
func (w *Wizard) validateLocked(step Step, data Data) StepResult {
	return w.stepResult(step, func(key string) Result { return w.evaluateLocked(key, data) })
}

// checkLocked validates step without touching cached results.
func (w *Wizard) checkLocked(step Step, data Data) StepResult {
	return w.stepResult(step, func(key string) Result {
		fs := w.fields[key]
		return Run(fs.def.Validators, fs.value, data)
	})
}

func (w *Wizard) stepResult(step Step, eval func(key string) Result) StepResult {
	res := StepResult{Index: step.Index, Valid: true, Errors: map[string]string{}}
	for _, key := range step.FieldKeys {
		r := eval(key)
		if !r.Valid {
			res.Valid = false
			res.Errors[key] = r.Message
			res.Failed = append(res.Failed, key)
		}
	}
	return res
}

func (w *Wizard) evaluateLocked(key string, data Data) Result {
	fs := w.fields[key]
	fs.result = Run(fs.def.Validators, fs.value, data)
	return fs.result
}

func (w *Wizard) dataLocked() Data {
	data := make(Data, len(w.order))
	for _, key := range w.order {
		data[key] = w.fields[key].value
	}
	return data
}

func (fs *fieldState) view() FieldView {
	return FieldView{
		Key:         fs.def.Key,
		Label:       fs.def.Label,
		Kind:        fs.def.Kind,
		Placeholder: fs.def.Placeholder,
		Secret:      fs.def.Secret,
		Value:       fs.value,
		Touched:     fs.touched,
		Result:      fs.result,
	}
}
