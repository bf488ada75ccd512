package dialect

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/shakram02/sql-schema-mcp/internal/sqlguard"
)

// SQLite implements Dialect for SQLite database files. Attached databases
// play the role of schemas; the primary database is "main".
type SQLite struct{}

func (d *SQLite) Name() string       { return "sqlite" }
func (d *SQLite) DriverName() string { return "sqlite" }
func (d *SQLite) ServerName() string { return "sqlite-readonly-mcp-server" }

// BuildDSN opens the file read-only through a file: URI so the driver hands
// mode=ro to SQLite.
func (d *SQLite) BuildDSN() (string, error) {
	path := os.Getenv("MCP_SQLITE_PATH")
	if path == "" {
		return "", fmt.Errorf("missing required environment variable: MCP_SQLITE_PATH")
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	switch {
	case !strings.Contains(path, "?"):
		return path + "?mode=ro", nil
	case !strings.Contains(path, "mode="):
		return path + "&mode=ro", nil
	default:
		return path, nil
	}
}

func (d *SQLite) ResourceBase(dsn string) (string, error) {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", fmt.Errorf("sqlite connection string names no file")
	}
	u := url.URL{Scheme: "sqlite", Path: "/" + strings.TrimPrefix(path, "/")}
	return u.String(), nil
}

func (d *SQLite) DefaultSchemas(string) ([]string, error) {
	return []string{"main"}, nil
}

// ListTablesQuery reads each schema's own sqlite_master. Schema names are
// quoted identifiers since SQLite cannot bind them.
func (d *SQLite) ListTablesQuery(schemas []string) (string, []any) {
	parts := make([]string, len(schemas))
	for i, schema := range schemas {
		parts[i] = `SELECT ? AS table_schema, name AS table_name FROM ` + quoteIdent(schema) +
			`.sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`
	}
	return strings.Join(parts, " UNION ALL ") + " ORDER BY 1, 2", toArgs(schemas)
}

func (d *SQLite) ReadColumnsQuery(schema, table string) (string, []any) {
	return `SELECT name, type FROM pragma_table_info(?, ?) ORDER BY cid`, []any{table, schema}
}

// ReadOnlyDSN turns a plain path into a file: URI and forces mode=ro,
// replacing any mode the caller asked for.
func (d *SQLite) ReadOnlyDSN(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("sqlite connection string names no file")
	}
	if dsn == ":memory:" {
		return dsn, nil
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	path, rawQuery, _ := strings.Cut(dsn, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("parse sqlite connection string: %w", err)
	}
	q.Set("mode", "ro")
	return path + "?" + q.Encode(), nil
}

func (d *SQLite) SessionReadOnly() string { return "PRAGMA query_only = ON" }

func (d *SQLite) BeginReadOnly() string { return "BEGIN" }

// SingleStatement is false: modernc runs batches, but a mode=ro connection
// cannot write whatever the batch does.
func (d *SQLite) SingleStatement() bool { return false }

func (d *SQLite) Guard() sqlguard.Rules { return sqlguard.SQLite }

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
