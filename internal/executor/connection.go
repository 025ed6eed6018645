package executor

import (
	"context"
	"fmt"

	"github.com/canonical/lxd/shared/logger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL wire protocol driver, also spoken by GaussDB.

	"github.com/gaussdb/gaussdb-mcp/internal/config"
)

// Connector opens a new connection to the named database.
type Connector interface {
	Connect(ctx context.Context, database string) (*sqlx.DB, error)
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, database string) (*sqlx.DB, error)

// Connect calls f.
func (f ConnectorFunc) Connect(ctx context.Context, database string) (*sqlx.DB, error) {
	return f(ctx, database)
}

// PostgresConnector connects with lib/pq using the given configuration.
type PostgresConnector struct {
	config config.Config
}

// NewPostgresConnector returns a connector bound to a copy of cfg.
func NewPostgresConnector(cfg config.Config) *PostgresConnector {
	return &PostgresConnector{config: cfg}
}

// Connect opens and pings a single-connection handle to the named database.
func (c *PostgresConnector) Connect(ctx context.Context, database string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.config.DSN(database))
	if err != nil {
		return nil, fmt.Errorf("Failed to connect to %q on %s: %w", database, c.config.Address(), err)
	}

	// Each operation owns exactly one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// withConnection acquires a connection for the duration of f and always releases it.
func withConnection(ctx context.Context, connector Connector, database string, f func(db *sqlx.DB) error) error {
	db, err := connector.Connect(ctx, database)
	if err != nil {
		return &kindError{kind: KindConnection, err: err}
	}

	defer func() {
		err := db.Close()
		if err != nil {
			logger.Warn("Failed to close database connection", logger.Ctx{"database": database, "err": err})
		}
	}()

	return f(db)
}
