package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/opencfg/confcheck/internal/adapters/sqlite/gormsqlite"
	"github.com/opencfg/confcheck/internal/core/domain"
)

type storedSchemaModel struct {
	TenantID   string    `gorm:"column:tenant_id;primaryKey"`
	Name       string    `gorm:"column:name;primaryKey"`
	SourceJSON string    `gorm:"column:source_json;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (storedSchemaModel) TableName() string {
	return "stored_schemas"
}

type SchemaRepository struct {
	db *gormsqlite.DB
}

func NewSchemaRepository(db *gormsqlite.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

func (r *SchemaRepository) Upsert(ctx context.Context, schema domain.StoredSchema) (domain.StoredSchema, error) {
	now := time.Now().UTC()
	model := storedSchemaModel{
		TenantID:   schema.TenantID,
		Name:       schema.Name,
		SourceJSON: string(schema.Source),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var out domain.StoredSchema
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"source_json", "updated_at"}),
		}).Create(&model).Error
		if err != nil {
			return fmt.Errorf("upsert schema: %w", err)
		}

		var saved storedSchemaModel
		if err := tx.Where("tenant_id = ? AND name = ?", schema.TenantID, schema.Name).First(&saved).Error; err != nil {
			return fmt.Errorf("load upserted schema: %w", err)
		}
		out = toStoredSchema(saved)
		return nil
	})
	if err != nil {
		return domain.StoredSchema{}, err
	}
	return out, nil
}

func (r *SchemaRepository) Get(ctx context.Context, tenantID, name string) (domain.StoredSchema, error) {
	var model storedSchemaModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("tenant_id = ? AND name = ?", tenantID, name).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.StoredSchema{}, domain.ErrNotFound
		}
		return domain.StoredSchema{}, fmt.Errorf("get schema: %w", err)
	}
	return toStoredSchema(model), nil
}

func (r *SchemaRepository) Delete(ctx context.Context, tenantID, name string) (bool, error) {
	var affected int64
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Where("tenant_id = ? AND name = ?", tenantID, name).Delete(&storedSchemaModel{})
		if res.Error != nil {
			return fmt.Errorf("delete schema: %w", res.Error)
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *SchemaRepository) List(ctx context.Context, tenantID string) ([]domain.StoredSchema, error) {
	var rows []storedSchemaModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("tenant_id = ?", tenantID).Order("name ASC").Find(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list schemas: %w", err)
	}

	result := make([]domain.StoredSchema, 0, len(rows))
	for _, row := range rows {
		result = append(result, toStoredSchema(row))
	}
	return result, nil
}

func toStoredSchema(model storedSchemaModel) domain.StoredSchema {
	return domain.StoredSchema{
		TenantID:  model.TenantID,
		Name:      model.Name,
		Source:    json.RawMessage(model.SourceJSON),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}
