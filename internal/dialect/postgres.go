package dialect

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/lib/pq"

	"github.com/shakram02/sql-schema-mcp/internal/sqlguard"
)

// Postgres implements Dialect for PostgreSQL databases.
type Postgres struct{}

func (d *Postgres) Name() string       { return "postgres" }
func (d *Postgres) DriverName() string { return "postgres" }
func (d *Postgres) ServerName() string { return "postgres-readonly-mcp-server" }

func (d *Postgres) BuildDSN() (string, error) {
	missing := missingEnv("MCP_PG_HOST", "MCP_PG_PORT", "MCP_PG_DB", "MCP_PG_USER", "MCP_PG_PASSWORD")
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variables: %v", missing)
	}

	sslmode := os.Getenv("MCP_PG_SSLMODE")
	if sslmode == "" {
		sslmode = "prefer"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(os.Getenv("MCP_PG_USER"), os.Getenv("MCP_PG_PASSWORD")),
		Host:     net.JoinHostPort(os.Getenv("MCP_PG_HOST"), os.Getenv("MCP_PG_PORT")),
		Path:     "/" + os.Getenv("MCP_PG_DB"),
		RawQuery: url.Values{"sslmode": {sslmode}}.Encode(),
	}
	return u.String(), nil
}

// ResourceBase accepts both URL and keyword/value connection strings.
func (d *Postgres) ResourceBase(dsn string) (string, error) {
	cfg, err := pgconn.ParseConfig(dsn)
	if err != nil {
		return "", fmt.Errorf("parse postgres connection string: %w", err)
	}

	host := cfg.Host
	if host == "" || strings.HasPrefix(host, "/") {
		host = "localhost"
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, strconv.Itoa(int(cfg.Port))),
		Path:   "/" + cfg.Database,
	}
	if cfg.User != "" {
		u.User = url.User(cfg.User)
	}
	return u.String(), nil
}

func (d *Postgres) DefaultSchemas(string) ([]string, error) {
	return []string{"public"}, nil
}

func (d *Postgres) ListTablesQuery(schemas []string) (string, []any) {
	query := `SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema IN (` + placeholders(len(schemas), func(i int) string { return "$" + strconv.Itoa(i) }) + `)
		ORDER BY table_schema, table_name`
	return query, toArgs(schemas)
}

func (d *Postgres) ReadColumnsQuery(schema, table string) (string, []any) {
	return `SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`, []any{schema, table}
}

// ReadOnlyDSN leaves dsn untouched; the session statement and prepared
// queries cover Postgres.
func (d *Postgres) ReadOnlyDSN(dsn string) (string, error) { return dsn, nil }

func (d *Postgres) SessionReadOnly() string {
	return "SET SESSION CHARACTERISTICS AS TRANSACTION READ ONLY"
}

func (d *Postgres) BeginReadOnly() string { return "BEGIN TRANSACTION READ ONLY" }

// SingleStatement is true because lib/pq sends argument-less queries through
// the simple protocol, which runs every statement of a batch.
func (d *Postgres) SingleStatement() bool { return true }

func (d *Postgres) Guard() sqlguard.Rules { return sqlguard.Postgres }
