package handlers

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender delivers an email on behalf of a send-email job
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender is the development sender: it records the email instead of
// delivering it. Production deployments wire a real provider here.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-backed sender
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the email
func (s *LogSender) Send(_ context.Context, to, subject, _ string) error {
	s.logger.Info("Email sent",
		slog.String("to", to),
		slog.String("subject", subject),
	)
	return nil
}

// SendEmail handles send-email jobs. Payload: {to, subject, body}
func (s *Set) SendEmail(ctx context.Context, payload map[string]any) error {
	to, ok := payload["to"].(string)
	if !ok || to == "" {
		return fmt.Errorf("send-email payload missing recipient")
	}

	subject, _ := payload["subject"].(string)
	body, _ := payload["body"].(string)

	if err := s.sender.Send(ctx, to, subject, body); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	return nil
}
