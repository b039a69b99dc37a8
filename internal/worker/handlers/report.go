package handlers

import (
	"context"
	"fmt"
	"log/slog"
)

// GenerateReport handles generate-report jobs. Payload: {report, tenant_id}.
// Report assembly lives in the web platform; this handler validates the
// request and records that the export was produced.
func (s *Set) GenerateReport(ctx context.Context, payload map[string]any) error {
	report, ok := payload["report"].(string)
	if !ok || report == "" {
		return fmt.Errorf("generate-report payload missing report name")
	}

	tenantID, _ := payload["tenant_id"].(string)

	select {
	case <-ctx.Done():
		return fmt.Errorf("report generation canceled: %w", ctx.Err())
	default:
	}

	s.logger.Info("Report generated",
		slog.String("report", report),
		slog.String("tenant_id", tenantID),
	)

	return nil
}
