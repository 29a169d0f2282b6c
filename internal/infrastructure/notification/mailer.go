package notification

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Message is an outbound e-mail request
type Message struct {
	From     string
	To       string
	Subject  string
	TextBody string
	// Headers carries correlation data for the mail relay, e.g. the order number
	Headers map[string]string
}

// Mailer hands messages to the e-mail delivery service
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes e-mail requests to the log instead of delivering them.
// It is the default when no relay is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger.Named("mailer")}
}

// Send logs the message
func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("E-mail request",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Any("headers", msg.Headers),
		zap.Int("body_bytes", len(msg.TextBody)),
	)
	m.logger.Debug("E-mail body", zap.String("body", msg.TextBody))
	return nil
}

// RecordingMailer keeps sent messages in memory
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Message
	Err  error
}

// Send records msg, or returns Err when set
func (m *RecordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the recorded messages
func (m *RecordingMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}
