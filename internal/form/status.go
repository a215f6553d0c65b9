package form

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/caibook/caibook/internal/logger"
)

// Status is the submission state of a wizard.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
)

const (
	eventSubmit  = "submit"
	eventSucceed = "succeed"
	eventFail    = "fail"
)

// statusMachine allows Idle→Submitting→{Succeeded,Failed} and the retry
// Failed→Submitting. Every other transition is rejected.
type statusMachine struct {
	fsm *fsm.FSM
}

func newStatusMachine(log *logger.Logger) *statusMachine {
	return &statusMachine{
		fsm: fsm.NewFSM(
			string(StatusIdle),
			fsm.Events{
				{Name: eventSubmit, Src: []string{string(StatusIdle), string(StatusFailed)}, Dst: string(StatusSubmitting)},
				{Name: eventSucceed, Src: []string{string(StatusSubmitting)}, Dst: string(StatusSucceeded)},
				{Name: eventFail, Src: []string{string(StatusSubmitting)}, Dst: string(StatusFailed)},
			},
			fsm.Callbacks{
				"enter_state": func(_ context.Context, e *fsm.Event) {
					log.Debug("submission status %s -> %s", e.Src, e.Dst)
				},
			},
		),
	}
}

func (m *statusMachine) current() Status {
	return Status(m.fsm.Current())
}

// begin moves to Submitting, mapping a refused transition onto the engine's
// contract errors.
func (m *statusMachine) begin(ctx context.Context) error {
	switch m.current() {
	case StatusSubmitting:
		return ErrSubmissionInProgress
	case StatusSucceeded:
		return ErrAlreadySubmitted
	}
	return m.event(ctx, eventSubmit)
}

func (m *statusMachine) finish(ctx context.Context, err error) error {
	if err != nil {
		return m.event(ctx, eventFail)
	}
	return m.event(ctx, eventSucceed)
}

// event fires name on the machine. The caller's cancellation is stripped:
// fsm drops transitions on a done context, and a cancelled submission must
// still land in Failed.
func (m *statusMachine) event(ctx context.Context, name string) error {
	err := m.fsm.Event(context.WithoutCancel(ctx), name)
	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return nil
	}
	return err
}
