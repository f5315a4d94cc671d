// Package email defines the interface for report notifications and provides a
// Resend-backed implementation plus a log-only fallback.
package email

import (
	"context"
	"log/slog"
)

// ReportReadyParams holds the data needed to announce a generated report.
type ReportReadyParams struct {
	To         string // recipient address
	PatientID  string
	ReportID   string // inserted into the report URL
	Services   int    // selected services in the report
	Categories int
}

// Sender is the interface the worker uses to send notifications. Tests inject
// a stub that records calls without hitting the network.
type Sender interface {
	// SendReportReady is called by the worker after PersistReport succeeds.
	SendReportReady(ctx context.Context, p ReportReadyParams) error
}

// ─── LOG SENDER ───────────────────────────────────────────────────────────────

// logSender writes the notification to the log instead of sending it. Used
// when no Resend API key is configured.
type logSender struct {
	logger *slog.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(logger *slog.Logger) Sender {
	return &logSender{logger: logger}
}

func (s *logSender) SendReportReady(_ context.Context, p ReportReadyParams) error {
	s.logger.Info("email: report ready (not sent, no api key)",
		"to", p.To,
		"patient_id", p.PatientID,
		"report_id", p.ReportID,
		"services", p.Services,
	)
	return nil
}
