package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/opencfg/confcheck/internal/core/domain"
	"github.com/opencfg/confcheck/internal/core/ports"
	"github.com/opencfg/confcheck/internal/jwcc"
)

// SchemaService manages per-tenant named schemas and compiles them into
// validator form. Compiled schemas are cached until the source changes.
type SchemaService struct {
	repo  ports.SchemaRepository
	cache sync.Map // key: "tenantID/name" → *domain.Schema
}

func NewSchemaService(repo ports.SchemaRepository) *SchemaService {
	return &SchemaService{repo: repo}
}

// CompileSource parses a JWCC schema source, verifies it also compiles as a
// standalone JSON Schema document, and interprets it into a domain.Schema.
// The returned raw message is the normalized JSON form of the source.
func CompileSource(source []byte) (domain.Schema, json.RawMessage, error) {
	doc, err := jwcc.Parse(source)
	if err != nil {
		return domain.Schema{}, nil, fmt.Errorf("parse schema source: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return domain.Schema{}, nil, fmt.Errorf("normalize schema source: %w", err)
	}
	if err := compilable(normalized); err != nil {
		return domain.Schema{}, nil, &domain.SchemaParseError{Path: "$", Msg: fmt.Sprintf("not a valid json schema: %v", err)}
	}
	sch, err := domain.ParseSchema(doc)
	if err != nil {
		return domain.Schema{}, nil, err
	}
	return sch, normalized, nil
}

func (s *SchemaService) Upsert(ctx context.Context, tenantID, name string, source []byte) (domain.StoredSchema, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return domain.StoredSchema{}, err
	}
	if err := domain.ValidateName(name); err != nil {
		return domain.StoredSchema{}, err
	}
	_, normalized, err := CompileSource(source)
	if err != nil {
		return domain.StoredSchema{}, err
	}
	s.cache.Delete(tenantID + "/" + name)
	return s.repo.Upsert(ctx, domain.StoredSchema{
		TenantID: tenantID,
		Name:     name,
		Source:   normalized,
	})
}

func (s *SchemaService) Get(ctx context.Context, tenantID, name string) (domain.StoredSchema, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return domain.StoredSchema{}, err
	}
	if err := domain.ValidateName(name); err != nil {
		return domain.StoredSchema{}, err
	}
	return s.repo.Get(ctx, tenantID, name)
}

func (s *SchemaService) Delete(ctx context.Context, tenantID, name string) (bool, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return false, err
	}
	if err := domain.ValidateName(name); err != nil {
		return false, err
	}
	s.cache.Delete(tenantID + "/" + name)
	return s.repo.Delete(ctx, tenantID, name)
}

func (s *SchemaService) List(ctx context.Context, tenantID string) ([]domain.StoredSchema, error) {
	if err := domain.ValidateName(tenantID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenantID)
}

// Compiled returns the validator form of a stored schema, loading and
// interpreting it on first use.
func (s *SchemaService) Compiled(ctx context.Context, tenantID, name string) (*domain.Schema, error) {
	cacheKey := tenantID + "/" + name
	if cached, ok := s.cache.Load(cacheKey); ok {
		return cached.(*domain.Schema), nil
	}

	stored, err := s.repo.Get(ctx, tenantID, name)
	if err != nil {
		return nil, err
	}
	doc, err := jwcc.Parse(stored.Source)
	if err != nil {
		return nil, fmt.Errorf("parse stored schema %s: %w", name, err)
	}
	sch, err := domain.ParseSchema(doc)
	if err != nil {
		return nil, fmt.Errorf("interpret stored schema %s: %w", name, err)
	}
	s.cache.Store(cacheKey, &sch)
	return &sch, nil
}

// compilable returns an error if source is not a valid JSON Schema document.
func compilable(source json.RawMessage) error {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(source)); err != nil {
		return err
	}
	_, err := compiler.Compile("schema.json")
	return err
}
