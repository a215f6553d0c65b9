// Package submission delivers completed wizards. Registration and group
// forms are appended to a JetStream stream that acts as an outbox; login
// credentials are sent as a NATS request to whatever auth service answers.
package submission

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/caibook/caibook/internal/logger"
	"github.com/caibook/caibook/internal/nats"
)

// Record is one submitted form as stored in the outbox stream.
type Record struct {
	ID        string            `json:"id"`        // Stream sequence, filled in when read back
	Timestamp time.Time         `json:"timestamp"` // When the form was submitted
	Flow      string            `json:"flow"`      // register, group
	Session   string            `json:"session"`   // Wizard session ID
	Fields    map[string]string `json:"fields"`    // Payload after hashing and dropping
}

// Store appends records to the submissions stream and reads them back.
type Store struct {
	js     jetstream.JetStream
	stream jetstream.Stream
}

// NewStore creates a Store on the given JetStream context and stream.
func NewStore(js jetstream.JetStream, stream jetstream.Stream) *Store {
	return &Store{js: js, stream: stream}
}

// Publish appends a record to the stream on caibook.{flow}.{session}.
// A returned ack means the record is durably stored.
func (s *Store) Publish(ctx context.Context, rec Record) (*jetstream.PubAck, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}

	subject := nats.SubjectForSubmission(rec.Flow, rec.Session)
	logger.Debug("Publishing submission: flow=%s session=%s", rec.Flow, rec.Session)

	ack, err := s.js.Publish(ctx, subject, data, jetstream.WithMsgID(rec.Flow+"."+rec.Session))
	if err != nil {
		logger.Error("Failed to publish submission to subject %s: %v", subject, err)
		return nil, fmt.Errorf("failed to publish submission: %w", err)
	}

	logger.Debug("Submission stored: seq=%d duplicate=%t", ack.Sequence, ack.Duplicate)
	return ack, nil
}

// History returns the stored records of a flow, oldest first. An empty flow
// returns the records of every flow.
func (s *Store) History(ctx context.Context, flow string) ([]Record, error) {
	cfg := jetstream.ConsumerConfig{
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if flow != "" {
		cfg.FilterSubject = nats.SubjectForFlow(flow)
	}

	consumer, err := s.stream.CreateOrUpdateConsumer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	info, err := consumer.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read consumer info: %w", err)
	}
	pending := int(info.NumPending)

	const batchSize = 256
	var (
		records   []Record
		malformed int
	)
	for len(records)+malformed < pending {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		count := 0
		for msg := range msgs.Messages() {
			count++
			var seq uint64
			if meta, err := msg.Metadata(); err == nil {
				seq = meta.Sequence.Stream
			}

			var rec Record
			if err := json.Unmarshal(msg.Data(), &rec); err != nil {
				malformed++
				logger.Warn("Skipping malformed submission (seq=%d): %v", seq, err)
				_ = msg.Ack()
				continue
			}
			rec.ID = fmt.Sprintf("%d", seq)
			records = append(records, rec)
			_ = msg.Ack()
		}
		if count == 0 {
			break
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})

	logger.Debug("Loaded %d submissions (flow=%q, %d malformed)", len(records), flow, malformed)
	return records, nil
}
