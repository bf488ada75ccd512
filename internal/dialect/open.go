package dialect

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// Pool defaults.
const (
	ConnectionTimeout  = 10 * time.Second
	MaxConnectionsIdle = 5
	MaxConnectionsOpen = 10
	ConnMaxLifetime    = time.Hour
)

// Open creates the shared connection pool for dsn and verifies it is
// reachable within ConnectionTimeout. Every connection the pool opens is
// made read-only for its whole session before it is handed out.
func Open(ctx context.Context, d Dialect, dsn string) (*sql.DB, error) {
	dsn, err := d.ReadOnlyDSN(dsn)
	if err != nil {
		return nil, err
	}

	base, err := connector(d.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db := sql.OpenDB(&sessionConnector{base: base, setup: d.SessionReadOnly()})

	db.SetMaxIdleConns(MaxConnectionsIdle)
	db.SetMaxOpenConns(MaxConnectionsOpen)
	db.SetConnMaxLifetime(ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, ConnectionTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// connector resolves the registered driver and returns its connector for dsn.
func connector(driverName, dsn string) (driver.Connector, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	drv := db.Driver()
	_ = db.Close()

	if dc, ok := drv.(driver.DriverContext); ok {
		return dc.OpenConnector(dsn)
	}
	return dsnConnector{dsn: dsn, driver: drv}, nil
}

type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) { return c.driver.Open(c.dsn) }
func (c dsnConnector) Driver() driver.Driver { return c.driver }

// sessionConnector runs setup on each new connection and drops the
// connection if it fails.
type sessionConnector struct {
	base  driver.Connector
	setup string
}

func (c *sessionConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.base.Connect(ctx)
	if err != nil {
		return nil, err
	}
	if err := execConn(ctx, conn, c.setup); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to make session read-only: %w", err)
	}
	return conn, nil
}

func (c *sessionConnector) Driver() driver.Driver { return c.base.Driver() }

func execConn(ctx context.Context, conn driver.Conn, statement string) error {
	if ex, ok := conn.(driver.ExecerContext); ok {
		_, err := ex.ExecContext(ctx, statement, nil)
		if !errors.Is(err, driver.ErrSkip) {
			return err
		}
	}

	stmt, err := conn.Prepare(statement)
	if err != nil {
		return err
	}
	defer stmt.Close()

	if sc, ok := stmt.(driver.StmtExecContext); ok {
		_, err = sc.ExecContext(ctx, nil)
		return err
	}
	_, err = stmt.Exec(nil) //nolint:staticcheck // drivers without StmtExecContext
	return err
}
