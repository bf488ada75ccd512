// Package dialect holds the per-database knowledge the server needs: which
// driver to open, how to describe the database without credentials, and the
// catalog and transaction statements to run.
package dialect

import (
	"fmt"
	"os"
	"strings"

	"github.com/shakram02/sql-schema-mcp/internal/sqlguard"
)

// Dialect defines the contract for database-specific behavior.
// Each supported database (PostgreSQL, MySQL, SQLite) implements this interface.
type Dialect interface {
	// Name is the value accepted by --driver.
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// ServerName returns the MCP implementation name advertised to clients.
	ServerName() string

	// BuildDSN constructs a connection string from environment variables.
	BuildDSN() (string, error)

	// ResourceBase returns the credential-free URI that prefixes every
	// resource URI for the database behind dsn.
	ResourceBase(dsn string) (string, error)

	// DefaultSchemas is the allow-list used when none is configured.
	DefaultSchemas(dsn string) ([]string, error)

	// ListTablesQuery returns one statement listing (schema, table) pairs for
	// all of schemas, ordered by schema then table.
	ListTablesQuery(schemas []string) (string, []any)

	// ReadColumnsQuery returns one statement listing (column name, data type)
	// pairs of schema.table in ordinal order.
	ReadColumnsQuery(schema, table string) (string, []any)

	// ReadOnlyDSN rewrites dsn so the driver itself refuses writes or
	// multi-statement batches where it can.
	ReadOnlyDSN(dsn string) (string, error)

	// SessionReadOnly is run once on every new pooled connection. It keeps
	// statements outside the per-call transaction read-only.
	SessionReadOnly() string

	// BeginReadOnly opens the per-call read-only transaction.
	BeginReadOnly() string

	// SingleStatement reports whether caller SQL must be prepared before it
	// runs, which makes the server reject batches such as "COMMIT; DELETE ...".
	SingleStatement() bool

	// Guard is the static screening policy used in strict mode.
	Guard() sqlguard.Rules
}

// ByName returns the dialect registered under name.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pg":
		return &Postgres{}, nil
	case "mysql", "mariadb":
		return &MySQL{}, nil
	case "sqlite", "sqlite3":
		return &SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q (want postgres, mysql or sqlite)", name)
	}
}

// Detect guesses the dialect from the shape of a connection string.
func Detect(dsn string) (Dialect, error) {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"),
		strings.HasPrefix(lower, "host="), strings.Contains(lower, " dbname="):
		return &Postgres{}, nil
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("),
		strings.Contains(lower, "@/"):
		return &MySQL{}, nil
	case strings.HasPrefix(lower, "file:"), lower == ":memory:",
		hasSQLiteExt(lower):
		return &SQLite{}, nil
	default:
		return nil, fmt.Errorf("cannot detect database type from connection string, pass --driver")
	}
}

func hasSQLiteExt(dsn string) bool {
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(dsn, ext) {
			return true
		}
	}
	return false
}

// placeholders renders n bind markers produced by mark, comma separated.
func placeholders(n int, mark func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = mark(i + 1)
	}
	return strings.Join(parts, ", ")
}

func toArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

func missingEnv(names ...string) []string {
	var missing []string
	for _, name := range names {
		if os.Getenv(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}
