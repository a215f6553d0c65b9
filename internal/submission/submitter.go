package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/caibook/caibook/internal/flows"
	"github.com/caibook/caibook/internal/form"
	"github.com/caibook/caibook/internal/logger"
	"github.com/caibook/caibook/internal/nats"
)

// ErrAuthUnavailable is returned by the login submit function when nothing
// answers on the auth subject.
var ErrAuthUnavailable = errors.New("authentication service unavailable")

// LoginRequest is the body sent on the auth subject.
type LoginRequest struct {
	Session  string `json:"session"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginReply is the body the auth service is expected to answer with.
type LoginReply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// RejectedError carries the reason an auth service gave for refusing a login.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	if e.Message == "" {
		return "login rejected"
	}
	return "login rejected: " + e.Message
}

// Submitter builds form.SubmitFunc values bound to a flow and a session.
type Submitter struct {
	store   *Store
	conn    *natsgo.Conn
	timeout time.Duration
}

// NewSubmitter creates a Submitter. A zero timeout means no deadline beyond
// the caller's context.
func NewSubmitter(store *Store, conn *natsgo.Conn, timeout time.Duration) *Submitter {
	return &Submitter{store: store, conn: conn, timeout: timeout}
}

// For returns the submit function for one wizard session of flow.
func (s *Submitter) For(flow flows.Flow, session string) form.SubmitFunc {
	log := logger.Default.With("flow", flow.Name, "session", session)
	if flow.Name == flows.Login {
		return func(ctx context.Context, data form.Data) error {
			ctx, cancel := s.withTimeout(ctx)
			defer cancel()
			return s.login(ctx, log, session, data)
		}
	}
	return func(ctx context.Context, data form.Data) error {
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		payload, err := flow.Payload(data)
		if err != nil {
			return err
		}
		ack, err := s.store.Publish(ctx, Record{Flow: flow.Name, Session: session, Fields: payload})
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return fmt.Errorf("submission timed out after %s", s.timeout)
			}
			return err
		}
		log.Info("stored as seq %d", ack.Sequence)
		return nil
	}
}

func (s *Submitter) login(ctx context.Context, log *logger.Logger, session string, data form.Data) error {
	body, err := json.Marshal(LoginRequest{
		Session:  session,
		Email:    data[flows.Email],
		Password: data[flows.Password],
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	msg, err := s.conn.RequestWithContext(ctx, nats.AuthLoginSubject, body)
	switch {
	case errors.Is(err, natsgo.ErrNoResponders):
		return ErrAuthUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, natsgo.ErrTimeout):
		return fmt.Errorf("login timed out: %w", ErrAuthUnavailable)
	case err != nil:
		return fmt.Errorf("login request failed: %w", err)
	}

	var reply LoginReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return fmt.Errorf("malformed login reply: %w", err)
	}
	if !reply.OK {
		log.Info("login rejected")
		return &RejectedError{Message: reply.Message}
	}
	log.Info("login accepted")
	return nil
}

func (s *Submitter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
