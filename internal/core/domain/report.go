package domain

import (
	"encoding/json"
	"time"
)

// ValidationReport is the persisted outcome of validating one document
// against a stored schema. Document holds the normalized JSON form of the
// submitted source (comments and trailing commas stripped, field order
// preserved).
type ValidationReport struct {
	ID         string
	TenantID   string
	SchemaName string
	Mode       Mode
	Valid      bool
	Violations []Violation
	Document   json.RawMessage
	CreatedAt  time.Time
}

type ReportFilter struct {
	SchemaName string
	Limit      int
}

func (f ReportFilter) Validate() error {
	if f.SchemaName != "" {
		return ValidateName(f.SchemaName)
	}
	return nil
}
