package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// Mailer sends one templated message. Rendering the template is the
// implementation's concern.
type Mailer interface {
	SendTemplatedMessage(ctx context.Context, templateKey string, data map[string]any, recipient, sender string, files []domain.Attachment) error
}

// OutboundMessage is the envelope handed to the mail worker.
type OutboundMessage struct {
	Template    string            `json:"template"`
	Recipient   string            `json:"recipient"`
	Sender      string            `json:"sender"`
	Context     map[string]any    `json:"context"`
	Attachments []OutboundFileRef `json:"attachments,omitempty"`
	QueuedAt    time.Time         `json:"queued_at"`
}

// OutboundFileRef points the mail worker at a stored attachment.
type OutboundFileRef struct {
	FileName   string `json:"file_name"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type,omitempty"`
}

func newOutboundMessage(templateKey string, data map[string]any, recipient, sender string, files []domain.Attachment, now time.Time) OutboundMessage {
	msg := OutboundMessage{
		Template:  templateKey,
		Recipient: recipient,
		Sender:    sender,
		Context:   data,
		QueuedAt:  now.UTC(),
	}
	for _, f := range files {
		msg.Attachments = append(msg.Attachments, OutboundFileRef{FileName: f.FileName, StorageKey: f.StorageKey, MimeType: f.MimeType})
	}
	return msg
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	logger *zap.Logger
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendTemplatedMessage(ctx context.Context, templateKey string, data map[string]any, recipient, sender string, files []domain.Attachment) error {
	m.logger.Info("templated mail",
		zap.String("template", templateKey),
		zap.String("recipient", recipient),
		zap.String("sender", sender),
		zap.Int("attachments", len(files)))
	return nil
}

// RedisOutbox queues messages on a Redis list consumed by an external mail worker.
type RedisOutbox struct {
	client redis.Cmdable
	key    string
	now    func() time.Time
}

func NewRedisOutbox(client redis.Cmdable, key string) *RedisOutbox {
	return &RedisOutbox{client: client, key: key, now: time.Now}
}

func (o *RedisOutbox) SendTemplatedMessage(ctx context.Context, templateKey string, data map[string]any, recipient, sender string, files []domain.Attachment) error {
	payload, err := json.Marshal(newOutboundMessage(templateKey, data, recipient, sender, files, o.now()))
	if err != nil {
		return fmt.Errorf("encode outbound message: %w", err)
	}
	if err := o.client.LPush(ctx, o.key, payload).Err(); err != nil {
		return fmt.Errorf("push to %s: %w", o.key, err)
	}
	return nil
}
