package ports

import (
	"context"

	"github.com/opencfg/confcheck/internal/core/domain"
)

type SchemaRepository interface {
	Upsert(ctx context.Context, schema domain.StoredSchema) (domain.StoredSchema, error)
	Get(ctx context.Context, tenantID, name string) (domain.StoredSchema, error)
	Delete(ctx context.Context, tenantID, name string) (bool, error)
	List(ctx context.Context, tenantID string) ([]domain.StoredSchema, error)
}
