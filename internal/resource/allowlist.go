package resource

import (
	"fmt"
	"slices"

	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
)

// AllowList is the fixed, ordered set of schemas the server may expose.
type AllowList struct {
	schemas []string
}

// NewAllowList copies schemas, so later changes to the slice do not leak in.
func NewAllowList(schemas []string) AllowList {
	return AllowList{schemas: slices.Clone(schemas)}
}

// Schemas returns a copy of the allowed schemas in configuration order.
func (a AllowList) Schemas() []string { return slices.Clone(a.schemas) }

// Len is the number of allowed schemas.
func (a AllowList) Len() int { return len(a.schemas) }

// Check fails unless schema is a non-empty exact member of the list.
func (a AllowList) Check(schema string) error {
	if schema == "" {
		return apperrors.New(apperrors.SchemaNotAllowed, "schema is required")
	}
	if !slices.Contains(a.schemas, schema) {
		return apperrors.New(apperrors.SchemaNotAllowed, fmt.Sprintf("schema %q is not allowed", schema))
	}
	return nil
}
