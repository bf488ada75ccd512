package dialect

import (
	"fmt"
	"net"
	"net/url"
	"os"

	"github.com/go-sql-driver/mysql"

	"github.com/shakram02/sql-schema-mcp/internal/sqlguard"
)

// MySQL implements Dialect for MySQL and MariaDB databases.
type MySQL struct{}

func (d *MySQL) Name() string       { return "mysql" }
func (d *MySQL) DriverName() string { return "mysql" }
func (d *MySQL) ServerName() string { return "mysql-readonly-mcp-server" }

func (d *MySQL) BuildDSN() (string, error) {
	missing := missingEnv("MCP_MYSQL_HOST", "MCP_MYSQL_PORT", "MCP_MYSQL_DB", "MCP_MYSQL_USER", "MCP_MYSQL_PASSWORD")
	if len(missing) > 0 {
		return "", fmt.Errorf("missing required environment variables: %v", missing)
	}

	cfg := mysql.NewConfig()
	cfg.User = os.Getenv("MCP_MYSQL_USER")
	cfg.Passwd = os.Getenv("MCP_MYSQL_PASSWORD")
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(os.Getenv("MCP_MYSQL_HOST"), os.Getenv("MCP_MYSQL_PORT"))
	cfg.DBName = os.Getenv("MCP_MYSQL_DB")
	return cfg.FormatDSN(), nil
}

func (d *MySQL) ResourceBase(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql connection string: %w", err)
	}

	host := cfg.Addr
	if cfg.Net == "unix" || host == "" {
		host = "localhost"
	}

	u := url.URL{Scheme: "mysql", Host: host, Path: "/" + cfg.DBName}
	if cfg.User != "" {
		u.User = url.User(cfg.User)
	}
	return u.String(), nil
}

// DefaultSchemas is the database named in the DSN; MySQL has no schema layer
// below the database.
func (d *MySQL) DefaultSchemas(dsn string) ([]string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql connection string: %w", err)
	}
	if cfg.DBName == "" {
		return nil, fmt.Errorf("mysql connection string names no database, pass schemas explicitly")
	}
	return []string{cfg.DBName}, nil
}

func (d *MySQL) ListTablesQuery(schemas []string) (string, []any) {
	query := `SELECT table_schema, table_name
		FROM information_schema.tables
		WHERE table_schema IN (` + placeholders(len(schemas), func(int) string { return "?" }) + `)
		ORDER BY table_schema, table_name`
	return query, toArgs(schemas)
}

func (d *MySQL) ReadColumnsQuery(schema, table string) (string, []any) {
	return `SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, []any{schema, table}
}

// ReadOnlyDSN switches multiStatements off so the server rejects batches.
func (d *MySQL) ReadOnlyDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql connection string: %w", err)
	}
	cfg.MultiStatements = false
	return cfg.FormatDSN(), nil
}

func (d *MySQL) SessionReadOnly() string { return "SET SESSION TRANSACTION READ ONLY" }

func (d *MySQL) BeginReadOnly() string { return "START TRANSACTION READ ONLY" }

func (d *MySQL) SingleStatement() bool { return false }

func (d *MySQL) Guard() sqlguard.Rules { return sqlguard.MySQL }
