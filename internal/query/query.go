// Package query runs one caller-supplied statement inside a read-only
// transaction that is always rolled back.
package query

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/shakram02/sql-schema-mcp/internal/dialect"
	apperrors "github.com/shakram02/sql-schema-mcp/internal/errors"
	"github.com/shakram02/sql-schema-mcp/internal/metrics"
)

// DefaultTimeout bounds acquiring a connection and running the statement.
const DefaultTimeout = 30 * time.Second

const rollbackTimeout = 5 * time.Second

// Pool hands out exclusive connections. *sql.DB satisfies it.
type Pool interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// Input is the argument object of the query tool.
type Input struct {
	SQL string `json:"sql" jsonschema:"the SQL statement to execute inside a read-only transaction"`
}

// Row maps column names to values for one result row.
type Row map[string]any

type Config struct {
	Logger  *slog.Logger
	Pool    Pool
	Dialect dialect.Dialect

	// Timeout of zero disables the deadline.
	Timeout time.Duration

	// Strict screens statements with the dialect's guard before they reach
	// the database.
	Strict bool
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
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

type Tool struct {
	log *slog.Logger
	cfg Config
}

func New(cfg Config) (*Tool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate query tool config: %w", err)
	}
	return &Tool{log: cfg.Logger, cfg: cfg}, nil
}

// Execute runs statement verbatim on its own connection and returns the rows
// as indented JSON. The transaction is rolled back whatever the outcome, and
// the connection goes back to the pool exactly once.
func (t *Tool) Execute(ctx context.Context, statement string) (string, error) {
	if t.cfg.Strict {
		if err := t.cfg.Dialect.Guard().Check(statement); err != nil {
			metrics.GuardRejectionsTotal.Inc()
			return "", err
		}
	}

	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	conn, err := t.cfg.Pool.Conn(ctx)
	if err != nil {
		return "", apperrors.Wrap(apperrors.Database, "failed to get connection", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, t.cfg.Dialect.BeginReadOnly()); err != nil {
		return "", apperrors.Wrap(apperrors.Database, "failed to begin read-only transaction", err)
	}
	defer t.rollback(ctx, conn)

	rows, err := collect(ctx, conn, statement, t.cfg.Dialect.SingleStatement())
	if err != nil {
		return "", err
	}
	metrics.QueryRowsReturned.Observe(float64(len(rows)))

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(apperrors.Database, "failed to marshal rows", err)
	}

	t.log.Debug("query: executed", "rows", len(rows))
	return string(out), nil
}

// rollback ends the transaction even when ctx has expired. A connection
// whose rollback failed may still hold an open transaction, so it is closed
// instead of being returned to the pool.
func (t *Tool) rollback(ctx context.Context, conn *sql.Conn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		metrics.RollbackFailuresTotal.Inc()
		t.log.Warn("query: rollback failed, discarding connection", "error", err)
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
}

// collect runs statement and scans every row. With prepare set the
// statement goes through the driver's prepare path, which refuses batches.
func collect(ctx context.Context, conn *sql.Conn, statement string, prepare bool) ([]Row, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if prepare {
		stmt, perr := conn.PrepareContext(ctx, statement)
		if perr != nil {
			return nil, apperrors.Wrap(apperrors.Database, "query failed", perr)
		}
		defer stmt.Close()
		rows, err = stmt.QueryContext(ctx)
	} else {
		rows, err = conn.QueryContext(ctx, statement)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "query failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "failed to get columns", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, apperrors.Wrap(apperrors.Database, fmt.Sprintf("failed to scan row %d", len(result)+1), err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.Database, "row iteration failed", err)
	}
	return result, nil
}
