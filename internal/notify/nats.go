package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	ferrors "git.home.luguber.info/inful/mantree/internal/foundation/errors"
	"git.home.luguber.info/inful/mantree/internal/logfields"
)

const (
	defaultFlushTimeout = 5 * time.Second
	minFlushTimeout     = 10 * time.Millisecond
)

// publisher is the subset of *nats.Conn used here.
type publisher interface {
	Publish(subject string, data []byte) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSNotifier publishes change events on a core NATS subject.
type NATSNotifier struct {
	conn    publisher
	subject string
}

// NewNATSNotifier connects to url.
func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	conn, err := nats.Connect(url, nats.Name("mantree"))
	if err != nil {
		return nil, ferrors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", url).
			Build()
	}
	slog.Info("NATS notifier connected", "url", url, "subject", subject)
	return &NATSNotifier{conn: conn, subject: subject}, nil
}

// NotifyChanges publishes event and waits for the server to acknowledge the
// flush. Events without pages are not sent.
func (n *NATSNotifier) NotifyChanges(ctx context.Context, event *ChangeEvent) error {
	if event == nil || len(event.Pages) == 0 {
		return nil
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal change event").Build()
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		return ferrors.NotifyError("failed to publish change event").
			WithCause(err).
			WithContext("subject", n.subject).
			Build()
	}

	if err := n.conn.FlushTimeout(flushTimeout(ctx)); err != nil {
		return ferrors.NotifyError("failed to flush change event").
			WithCause(err).
			WithContext("subject", n.subject).
			Build()
	}
	slog.Debug("Published change event", logfields.BuildID(event.BuildID), logfields.Count(len(event.Pages)))
	return nil
}

// flushTimeout bounds the flush by ctx's deadline. FlushTimeout rejects
// non-positive values, so an expired deadline still gets a minimal wait.
func flushTimeout(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultFlushTimeout
	}
	if d := time.Until(deadline); d > minFlushTimeout {
		return d
	}
	return minFlushTimeout
}

// Close closes the NATS connection.
func (n *NATSNotifier) Close() error {
	if n.conn != nil {
		n.conn.Close()
	}
	return nil
}
