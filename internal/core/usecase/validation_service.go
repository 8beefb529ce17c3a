package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencfg/confcheck/internal/core/domain"
	"github.com/opencfg/confcheck/internal/core/ports"
	"github.com/opencfg/confcheck/internal/jwcc"
)

// ValidationService validates JWCC documents against stored schemas and
// keeps a report of every run. Violations are part of the report, never an
// error: only parse failures and infrastructure problems surface as errors.
type ValidationService struct {
	schemas *SchemaService
	reports ports.ReportStore
}

func NewValidationService(schemas *SchemaService, reports ports.ReportStore) *ValidationService {
	return &ValidationService{schemas: schemas, reports: reports}
}

// Run validates source against the tenant's named schema and persists the
// resulting report together with its outbox event.
func (s *ValidationService) Run(ctx context.Context, tenantID, schemaName string, source []byte, mode domain.Mode, actor string) (domain.ValidationReport, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return domain.ValidationReport{}, err
	}
	if err := domain.ValidateName(schemaName); err != nil {
		return domain.ValidationReport{}, err
	}

	sch, err := s.schemas.Compiled(ctx, tenantID, schemaName)
	if err != nil {
		return domain.ValidationReport{}, err
	}

	doc, err := jwcc.Parse(source)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("parse document: %w", err)
	}

	result := domain.Validate(*sch, doc, mode)
	normalized, err := json.Marshal(doc)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("normalize document: %w", err)
	}

	report := domain.ValidationReport{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		SchemaName: schemaName,
		Mode:       mode,
		Valid:      result.Valid(),
		Violations: result.Violations,
		Document:   normalized,
		CreatedAt:  time.Now().UTC(),
	}
	return s.reports.SaveWithEvent(ctx, report, actor)
}

func (s *ValidationService) GetReport(ctx context.Context, tenantID, id string) (domain.ValidationReport, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return domain.ValidationReport{}, err
	}
	if err := domain.ValidateName(id); err != nil {
		return domain.ValidationReport{}, err
	}
	return s.reports.Get(ctx, tenantID, id)
}

func (s *ValidationService) ListReports(ctx context.Context, tenantID string, filter domain.ReportFilter) ([]domain.ValidationReport, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return nil, err
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.reports.List(ctx, tenantID, filter)
}

// ValidateSources is the one-shot path used by the CLI: compile a schema
// source, parse a document source, validate. Nothing is stored and no
// events are emitted.
func ValidateSources(schemaSrc, docSrc []byte, mode domain.Mode) (domain.Result, error) {
	sch, _, err := CompileSource(schemaSrc)
	if err != nil {
		return domain.Result{}, err
	}
	doc, err := jwcc.Parse(docSrc)
	if err != nil {
		return domain.Result{}, fmt.Errorf("parse document: %w", err)
	}
	return domain.Validate(sch, doc, mode), nil
}
