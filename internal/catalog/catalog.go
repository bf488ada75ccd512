// Package catalog lists the tables in the allowed schemas and reads their
// column metadata from the live database catalog.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/shakram02/sql-schema-mcp/internal/dialect"
	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
	"github.com/shakram02/sql-schema-mcp/internal/resource"
)

// Pool hands out exclusive connections. *sql.DB satisfies it.
type Pool interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Column is the metadata returned for one table column.
type Column struct {
	ColumnName string `json:"column_name"`
	DataType   string `json:"data_type"`
}

type Config struct {
	Logger    *slog.Logger
	Pool      Pool
	Dialect   dialect.Dialect
	Codec     *resource.Codec
	AllowList resource.AllowList
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return fmt.Errorf("logger is required")
	}
	if cfg.Pool == nil {
		return fmt.Errorf("pool is required")
	}
	if cfg.Dialect == nil {
		return fmt.Errorf("dialect is required")
	}
	if cfg.Codec == nil {
		return fmt.Errorf("codec is required")
	}
	return nil
}

type Catalog struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Catalog, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate catalog config: %w", err)
	}
	return &Catalog{log: cfg.Logger, cfg: cfg}, nil
}

// List returns one resource per table in the allowed schemas, ordered by
// schema then table. Any failure fails the whole listing.
func (c *Catalog) List(ctx context.Context) ([]*mcp.Resource, error) {
	if c.cfg.AllowList.Len() == 0 {
		return []*mcp.Resource{}, nil
	}
	schemas := c.cfg.AllowList.Schemas()

	conn, err := c.cfg.Pool.Conn(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "failed to get connection", err)
	}
	defer conn.Close()

	query, args := c.cfg.Dialect.ListTablesQuery(schemas)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "failed to list tables", err)
	}
	defer rows.Close()

	resources := []*mcp.Resource{}
	for rows.Next() {
		var schema, table string
		if err := rows.Scan(&schema, &table); err != nil {
			return nil, apperrors.Wrap(apperrors.Database, "failed to scan table", err)
		}
		resources = append(resources, &mcp.Resource{
			URI:      c.cfg.Codec.Build(schema, table),
			MIMEType: resource.MIMEType,
			Name:     fmt.Sprintf(`"%s.%s" database schema`, schema, table),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "failed to iterate tables", err)
	}

	c.log.Debug("catalog: listed tables", "schemas", schemas, "count", len(resources))
	return resources, nil
}

// Read returns the column list of the table addressed by uri as indented
// JSON. A table that does not exist reads as an empty list.
func (c *Catalog) Read(ctx context.Context, uri string) (string, error) {
	ref, err := c.cfg.Codec.Parse(uri)
	if err != nil {
		return "", err
	}
	if err := c.cfg.AllowList.Check(ref.Schema); err != nil {
		return "", err
	}

	columns, err := c.columns(ctx, ref)
	if err != nil {
		return "", err
	}

	out, err := json.MarshalIndent(columns, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(apperrors.Database, "failed to marshal columns", err)
	}
	return string(out), nil
}

func (c *Catalog) columns(ctx context.Context, ref resource.Ref) ([]Column, error) {
	conn, err := c.cfg.Pool.Conn(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "failed to get connection", err)
	}
	defer conn.Close()

	query, args := c.cfg.Dialect.ReadColumnsQuery(ref.Schema, ref.Table)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Database, fmt.Sprintf("failed to read columns of %s", ref), err)
	}
	defer rows.Close()

	columns := []Column{}
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.ColumnName, &col.DataType); err != nil {
			return nil, apperrors.Wrap(apperrors.Database, "failed to scan column", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "failed to iterate columns", err)
	}
	return columns, nil
}
