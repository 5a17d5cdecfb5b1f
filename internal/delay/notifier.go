package delay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers a delay report to the mailer. It returns an
// identifier of the delivery.
type Notifier interface {
	Notify(ctx context.Context, msg *Message) (string, error)
}

// Message is a delay report addressed to its recipients
type Message struct {
	Subject string      `json:"subject"`
	To      []Recipient `json:"to"`
	CC      []Recipient `json:"cc"`
	Report  *Report     `json:"report"`
}

// LogNotifier writes the report to the log instead of sending it
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs one line per delayed application
func (n *LogNotifier) Notify(ctx context.Context, msg *Message) (string, error) {
	id := uuid.NewString()

	n.logger.Info("TAT delay notification",
		zap.String("delivery_id", id),
		zap.String("subject", msg.Subject),
		zap.Int("to", len(msg.To)),
		zap.Int("cc", len(msg.CC)),
		zap.Int("applications", msg.Report.ApplicationCount()))

	for _, c := range msg.Report.Customers {
		for _, b := range c.Branches {
			for _, a := range b.Applications {
				n.logger.Info("Application out of TAT",
					zap.String("customer", c.CustomerName),
					zap.String("branch", b.BranchName),
					zap.String("application_id", a.ApplicationID),
					zap.String("created_at", a.ApplicationCreatedAt),
					zap.Int("days_out_of_tat", a.DaysOutOfTat))
			}
		}
	}

	return id, nil
}

// OutboxDocument is the file an external mailer picks up
type OutboxDocument struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Message   *Message  `json:"message"`
}

// OutboxNotifier writes each message as a JSON document into a directory
type OutboxNotifier struct {
	dir    string
	logger *zap.Logger
}

// NewOutboxNotifier creates an outbox notifier writing into dir
func NewOutboxNotifier(dir string, logger *zap.Logger) *OutboxNotifier {
	return &OutboxNotifier{dir: dir, logger: logger}
}

// Notify writes msg to <dir>/<uuid>.json
func (n *OutboxNotifier) Notify(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if err := os.MkdirAll(n.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create outbox directory: %w", err)
	}

	doc := OutboxDocument{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Message:   msg,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal outbox document: %w", err)
	}

	path := filepath.Join(n.dir, doc.ID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write outbox document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("failed to publish outbox document: %w", err)
	}

	n.logger.Info("Outbox document written",
		zap.String("id", doc.ID),
		zap.String("path", path),
		zap.Int("applications", msg.Report.ApplicationCount()))

	return doc.ID, nil
}
