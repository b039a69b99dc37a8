// Package handlers contains the platform's built-in job handlers: the job
// kinds the web layer enqueues (notification email, webhook delivery, report
// generation). Handlers are pure functions of the job payload; anything they
// need from the outside world comes in through the constructor.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/platformlab/jobcore/internal/worker"
)

// Job type names accepted by the platform
const (
	TypeSendEmail      = "send-email"
	TypeSendWebhook    = "send-webhook"
	TypeGenerateReport = "generate-report"
)

// Set bundles the built-in handlers and their dependencies
type Set struct {
	logger *slog.Logger
	sender Sender
	client *http.Client
}

// NewSet creates the default handler set. A nil sender falls back to the
// log-backed sender; a nil client gets a 30s-timeout HTTP client.
func NewSet(logger *slog.Logger, sender Sender) *Set {
	if sender == nil {
		sender = NewLogSender(logger)
	}

	return &Set{
		logger: logger,
		sender: sender,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// RegisterDefaultHandlers registers every built-in handler on the registry
func (s *Set) RegisterDefaultHandlers(r *worker.Registry) {
	r.Register(TypeSendEmail, s.SendEmail)
	r.Register(TypeSendWebhook, s.SendWebhook)
	r.Register(TypeGenerateReport, s.GenerateReport)
}
