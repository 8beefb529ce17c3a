package ports

import (
	"context"

	"github.com/opencfg/confcheck/internal/core/domain"
)

// ReportStore persists validation reports. SaveWithEvent writes the report
// and its outbox event in one transaction so a stored report is never
// silently unannounced.
type ReportStore interface {
	SaveWithEvent(ctx context.Context, report domain.ValidationReport, actor string) (domain.ValidationReport, error)
	Get(ctx context.Context, tenantID, id string) (domain.ValidationReport, error)
	List(ctx context.Context, tenantID string, filter domain.ReportFilter) ([]domain.ValidationReport, error)
}
