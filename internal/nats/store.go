package nats

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the JetStream stream holding submitted forms.
	StreamName = "caibook_submissions"

	subjectRoot = "caibook"

	// AuthLoginSubject is the request-reply subject used by the login flow.
	// It is deliberately outside the stream so JetStream never answers it.
	AuthLoginSubject = "caibook.auth.login"

	retention = 90 * 24 * time.Hour
)

// SubjectForSubmission returns the subject a submission is published on.
// Example: "caibook.register.3f1c..."
func SubjectForSubmission(flow, session string) string {
	return fmt.Sprintf("%s.%s.%s", subjectRoot, flow, session)
}

// SubjectForFlow returns the wildcard subject matching every submission of a flow.
// Example: "caibook.register.*"
func SubjectForFlow(flow string) string {
	return fmt.Sprintf("%s.%s.*", subjectRoot, flow)
}

// SetupStream creates or updates the submissions stream so that it captures
// every given flow. Flows are required so the auth subject is never captured.
func SetupStream(ctx context.Context, js jetstream.JetStream, flows ...string) (jetstream.Stream, error) {
	if len(flows) == 0 {
		return nil, errors.New("no flows to capture")
	}
	subjects := make([]string, 0, len(flows))
	for _, f := range flows {
		if f == "" || strings.ContainsAny(f, ".*> ") {
			return nil, fmt.Errorf("invalid flow name %q", f)
		}
		subjects = append(subjects, SubjectForFlow(f))
	}
	return js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     StreamName,
		Subjects: subjects,
		Storage:  jetstream.FileStorage,
		MaxAge:   retention,
	})
}
