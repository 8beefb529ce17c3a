package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opencfg/confcheck/internal/adapters/sqlite/gormsqlite"
	"github.com/opencfg/confcheck/internal/core/domain"
)

type validationReportModel struct {
	ID             string    `gorm:"column:id;primaryKey"`
	TenantID       string    `gorm:"column:tenant_id;not null"`
	SchemaName     string    `gorm:"column:schema_name;not null"`
	Mode           string    `gorm:"column:mode;not null"`
	Valid          bool      `gorm:"column:valid;not null"`
	ViolationsJSON string    `gorm:"column:violations_json;not null"`
	DocumentJSON   string    `gorm:"column:document_json;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (validationReportModel) TableName() string {
	return "validation_reports"
}

type outboxEventModel struct {
	ID            int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       string     `gorm:"column:event_id;not null"`
	TenantID      string     `gorm:"column:tenant_id;not null"`
	Topic         string     `gorm:"column:topic;not null"`
	PayloadJSON   string     `gorm:"column:payload_json;not null"`
	Status        string     `gorm:"column:status;not null"`
	Attempts      int        `gorm:"column:attempts;not null"`
	NextAttemptAt time.Time  `gorm:"column:next_attempt_at;not null"`
	LastError     string     `gorm:"column:last_error;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	DispatchedAt  *time.Time `gorm:"column:dispatched_at"`
}

func (outboxEventModel) TableName() string {
	return "outbox_events"
}

// ReportStore persists validation reports and, in the same transaction,
// enqueues the outbox event announcing the run.
type ReportStore struct {
	db *gormsqlite.DB
}

func NewReportStore(db *gormsqlite.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) SaveWithEvent(ctx context.Context, report domain.ValidationReport, actor string) (domain.ValidationReport, error) {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	if actor == "" {
		actor = "api"
	}

	violationsJSON, err := json.Marshal(report.Violations)
	if err != nil {
		return domain.ValidationReport{}, fmt.Errorf("encode violations: %w", err)
	}

	err = s.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		model := validationReportModel{
			ID:             report.ID,
			TenantID:       report.TenantID,
			SchemaName:     report.SchemaName,
			Mode:           string(report.Mode),
			Valid:          report.Valid,
			ViolationsJSON: string(violationsJSON),
			DocumentJSON:   string(report.Document),
			CreatedAt:      report.CreatedAt,
		}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		eventType := domain.EventValidationFailed
		if report.Valid {
			eventType = domain.EventValidationPassed
		}
		envelope := domain.EventEnvelope{
			EventID:    uuid.NewString(),
			EventType:  eventType,
			TenantID:   report.TenantID,
			SchemaName: report.SchemaName,
			ReportID:   report.ID,
			OccurredAt: report.CreatedAt,
			Actor:      actor,
			Payload: mustJSON(map[string]any{
				"report_id":   report.ID,
				"schema_name": report.SchemaName,
				"mode":        report.Mode,
				"valid":       report.Valid,
				"violations":  json.RawMessage(violationsJSON),
			}),
		}
		payload, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("encode event: %w", err)
		}

		outbox := outboxEventModel{
			EventID:       envelope.EventID,
			TenantID:      report.TenantID,
			Topic:         "validation." + report.TenantID,
			PayloadJSON:   string(payload),
			Status:        "pending",
			NextAttemptAt: report.CreatedAt,
			CreatedAt:     report.CreatedAt,
		}
		if err := tx.Create(&outbox).Error; err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.ValidationReport{}, err
	}
	return report, nil
}

func (s *ReportStore) Get(ctx context.Context, tenantID, id string) (domain.ValidationReport, error) {
	var model validationReportModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ValidationReport{}, domain.ErrNotFound
		}
		return domain.ValidationReport{}, fmt.Errorf("get report: %w", err)
	}
	return toReport(model)
}

func (s *ReportStore) List(ctx context.Context, tenantID string, filter domain.ReportFilter) ([]domain.ValidationReport, error) {
	var rows []validationReportModel
	err := s.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		query := tx.Model(&validationReportModel{}).Where("tenant_id = ?", tenantID)
		if filter.SchemaName != "" {
			query = query.Where("schema_name = ?", filter.SchemaName)
		}
		return query.Order("created_at DESC, id DESC").Limit(filter.Limit).Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	result := make([]domain.ValidationReport, 0, len(rows))
	for _, row := range rows {
		report, err := toReport(row)
		if err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	return result, nil
}

func toReport(model validationReportModel) (domain.ValidationReport, error) {
	var violations []domain.Violation
	if err := json.Unmarshal([]byte(model.ViolationsJSON), &violations); err != nil {
		return domain.ValidationReport{}, fmt.Errorf("decode violations for report %s: %w", model.ID, err)
	}
	return domain.ValidationReport{
		ID:         model.ID,
		TenantID:   model.TenantID,
		SchemaName: model.SchemaName,
		Mode:       domain.Mode(model.Mode),
		Valid:      model.Valid,
		Violations: violations,
		Document:   json.RawMessage(model.DocumentJSON),
		CreatedAt:  model.CreatedAt,
	}, nil
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
