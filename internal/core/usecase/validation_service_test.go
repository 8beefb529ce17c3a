package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/opencfg/confcheck/internal/core/domain"
	"github.com/opencfg/confcheck/internal/jwcc"
)

// stubReportStore is an in-memory ReportStore for tests.
type stubReportStore struct {
	reports []domain.ValidationReport
	actors  []string
}

func (s *stubReportStore) SaveWithEvent(_ context.Context, report domain.ValidationReport, actor string) (domain.ValidationReport, error) {
	s.reports = append(s.reports, report)
	s.actors = append(s.actors, actor)
	return report, nil
}

func (s *stubReportStore) Get(_ context.Context, tenantID, id string) (domain.ValidationReport, error) {
	for _, r := range s.reports {
		if r.TenantID == tenantID && r.ID == id {
			return r, nil
		}
	}
	return domain.ValidationReport{}, domain.ErrNotFound
}

func (s *stubReportStore) List(_ context.Context, tenantID string, filter domain.ReportFilter) ([]domain.ValidationReport, error) {
	var out []domain.ValidationReport
	for _, r := range s.reports {
		if r.TenantID != tenantID {
			continue
		}
		if filter.SchemaName != "" && r.SchemaName != filter.SchemaName {
			continue
		}
		out = append(out, r)
		if len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func newValidationFixture(t *testing.T) (*ValidationService, *stubReportStore) {
	t.Helper()
	schemas := NewSchemaService(newStubSchemaRepo())
	if _, err := schemas.Upsert(context.Background(), "tenant-a", "project", []byte(testSchemaSource)); err != nil {
		t.Fatalf("upsert schema: %v", err)
	}
	store := &stubReportStore{}
	return NewValidationService(schemas, store), store
}

func TestValidationServiceRunValidDocument(t *testing.T) {
	svc, store := newValidationFixture(t)

	report, err := svc.Run(context.Background(), "tenant-a", "project",
		[]byte(`{"name": "demo", "license": "MIT",}`), domain.ModeStrict, "tester")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Valid || len(report.Violations) != 0 {
		t.Fatalf("expected valid report, got %+v", report)
	}
	if report.ID == "" {
		t.Fatal("expected generated report ID")
	}
	if string(report.Document) != `{"name":"demo","license":"MIT"}` {
		t.Fatalf("unexpected normalized document: %s", report.Document)
	}
	if len(store.reports) != 1 || store.actors[0] != "tester" {
		t.Fatalf("expected one stored report by tester, got %+v / %v", store.reports, store.actors)
	}
}

func TestValidationServiceRunCollectsViolations(t *testing.T) {
	svc, store := newValidationFixture(t)

	report, err := svc.Run(context.Background(), "tenant-a", "project",
		[]byte(`{"license": "WTFPL", "extra": 1}`), domain.ModeStrict, "tester")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	kinds := make([]domain.ViolationKind, 0, len(report.Violations))
	for _, v := range report.Violations {
		kinds = append(kinds, v.Kind)
	}
	want := []domain.ViolationKind{domain.KindMissingRequired, domain.KindValueNotInEnum, domain.KindUnexpectedField}
	if len(kinds) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("violation %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}
	// Invalid documents still produce a stored report, not an error.
	if len(store.reports) != 1 {
		t.Fatalf("expected stored report, got %d", len(store.reports))
	}
}

func TestValidationServiceRunLenientIgnoresUnknownFields(t *testing.T) {
	svc, _ := newValidationFixture(t)

	report, err := svc.Run(context.Background(), "tenant-a", "project",
		[]byte(`{"name": "demo", "extra": true}`), domain.ModeLenient, "tester")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Valid {
		t.Fatalf("expected valid report in lenient mode, got %+v", report.Violations)
	}
}

func TestValidationServiceRunUnknownSchema(t *testing.T) {
	svc, _ := newValidationFixture(t)
	_, err := svc.Run(context.Background(), "tenant-a", "nope", []byte(`{}`), domain.ModeStrict, "tester")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestValidationServiceRunMalformedDocument(t *testing.T) {
	svc, store := newValidationFixture(t)
	_, err := svc.Run(context.Background(), "tenant-a", "project", []byte(`{"name": `), domain.ModeStrict, "tester")
	var pe *jwcc.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *jwcc.ParseError, got %v", err)
	}
	if len(store.reports) != 0 {
		t.Fatal("parse failures must not produce reports")
	}
}

func TestValidationServiceGetAndListReports(t *testing.T) {
	svc, _ := newValidationFixture(t)

	stored, err := svc.Run(context.Background(), "tenant-a", "project",
		[]byte(`{"name": "demo"}`), domain.ModeStrict, "tester")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := svc.GetReport(context.Background(), "tenant-a", stored.ID)
	if err != nil {
		t.Fatalf("get report: %v", err)
	}
	if got.ID != stored.ID {
		t.Fatalf("unexpected report: %+v", got)
	}

	// Tenants cannot read each other's reports.
	if _, err := svc.GetReport(context.Background(), "tenant-b", stored.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for other tenant, got %v", err)
	}

	list, err := svc.ListReports(context.Background(), "tenant-a", domain.ReportFilter{})
	if err != nil {
		t.Fatalf("list reports: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected one report, got %d", len(list))
	}
}

func TestValidateSourcesOneShot(t *testing.T) {
	result, err := ValidateSources([]byte(testSchemaSource), []byte(`{"license": "MIT"}`), domain.ModeStrict)
	if err != nil {
		t.Fatalf("validate sources: %v", err)
	}
	if result.Valid() {
		t.Fatal("expected missing_required violation")
	}
	if result.Violations[0].Kind != domain.KindMissingRequired {
		t.Fatalf("unexpected violation: %+v", result.Violations[0])
	}

	_, err = ValidateSources([]byte(`{"type": "object", "properties":`), []byte(`{}`), domain.ModeStrict)
	if err == nil || !strings.Contains(err.Error(), "parse schema source") {
		t.Fatalf("expected schema parse error, got %v", err)
	}
}
