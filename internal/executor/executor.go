package executor

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/canonical/lxd/shared/logger"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gaussdb/gaussdb-mcp/internal/config"
)

// Executor runs operations against the configured database. It holds no connection between calls and is
// safe for concurrent use.
type Executor struct {
	connector     Connector
	database      string
	adminDatabase string
}

// New returns an Executor for cfg. If connector is nil, connections are made with lib/pq.
func New(cfg config.Config, connector Connector) *Executor {
	if connector == nil {
		connector = NewPostgresConnector(cfg)
	}

	return &Executor{
		connector:     connector,
		database:      cfg.Database,
		adminDatabase: cfg.AdminDatabase,
	}
}

// Run validates, composes and executes a single request and returns its success message. On failure the
// returned error is always an *Error.
func (e *Executor) Run(ctx context.Context, req Request) (string, error) {
	logCtx := logger.Ctx{"op": string(req.Op), "target": req.Target()}
	if req.Op.isWrite() || req.Op == OpSelect {
		if req.Data != nil {
			logCtx["data"] = req.Data
		}

		if req.Condition != nil {
			logCtx["condition"] = req.Condition
		}
	}

	err := req.Validate()
	if err != nil {
		return "", e.fail(req, KindValidation, err, logCtx)
	}

	stmt, err := Compose(req)
	if err != nil {
		return "", e.fail(req, KindValidation, err, logCtx)
	}

	database := e.database
	if req.Op == OpCreateDatabase {
		// CREATE DATABASE cannot run inside a transaction block, nor against the database being created.
		database = e.adminDatabase
	}

	logger.Debug("Running statement", logger.Ctx{"op": string(req.Op), "query": stmt.Query, "args": len(stmt.Args)})

	var msg string
	err = withConnection(ctx, e.connector, database, func(db *sqlx.DB) error {
		// Once the statement is sent it runs to completion.
		ctx := context.WithoutCancel(ctx)

		var err error
		switch req.Op {
		case OpInsert, OpUpdate, OpDelete:
			msg, err = e.write(ctx, db, req, stmt, logCtx)
		case OpSelect:
			msg, err = e.query(ctx, db, req, stmt, logCtx)
		case OpDescribeTable:
			msg, err = e.describe(ctx, db, req, stmt)
		default:
			msg, err = e.exec(ctx, db, req, stmt)
		}

		return err
	})
	if err != nil {
		return "", e.fail(req, classify(err), err, logCtx)
	}

	logger.Info("Operation succeeded", logCtx)

	return msg, nil
}

// exec runs DDL outside of any explicit transaction.
func (e *Executor) exec(ctx context.Context, db *sqlx.DB, req Request, stmt Statement) (string, error) {
	_, err := db.ExecContext(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return "", err
	}

	switch req.Op {
	case OpCreateDatabase:
		return fmt.Sprintf("Successfully created database: %s", req.Database), nil
	case OpCreateTable:
		return fmt.Sprintf("Successfully created table: %s", req.Table), nil
	}

	return fmt.Sprintf("Successfully dropped table: %s", req.Table), nil
}

// write runs a row modifying statement in its own transaction.
func (e *Executor) write(ctx context.Context, db *sqlx.DB, req Request, stmt Statement, logCtx logger.Ctx) (string, error) {
	if req.Op == OpDelete && len(req.Condition) == 0 {
		logger.Warn("Deleting all rows, no condition given", logger.Ctx{"table": req.Table})
	}

	var affected int64
	err := Transaction(ctx, db, func(ctx context.Context, tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, stmt.Query, stmt.Args...)
		if err != nil {
			return err
		}

		affected, err = result.RowsAffected()
		if err != nil {
			return fmt.Errorf("Failed to fetch affected rows: %w", err)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	logCtx["rows"] = affected

	switch req.Op {
	case OpInsert:
		return fmt.Sprintf("Successfully inserted data into %s: %s", req.Table, formatArgs(req.Data)), nil
	case OpUpdate:
		return fmt.Sprintf("Successfully updated %s with data: %s", req.Table, formatArgs(req.Data)), nil
	}

	condition := "None"
	if len(req.Condition) > 0 {
		condition = formatArgs(req.Condition)
	}

	return fmt.Sprintf("Successfully deleted from %s with condition: %s", req.Table, condition), nil
}

// query fetches the whole result set and encodes it.
func (e *Executor) query(ctx context.Context, db *sqlx.DB, req Request, stmt Statement, logCtx logger.Ctx) (string, error) {
	rs, err := fetchAll(ctx, db, stmt)
	if err != nil {
		return "", err
	}

	logCtx["rows"] = len(rs.Rows)

	text, err := Encode(*rs)
	if err != nil {
		return "", &kindError{kind: KindEncoding, err: err}
	}

	return text, nil
}

// describe returns the reconstructed CREATE TABLE statement.
func (e *Executor) describe(ctx context.Context, db *sqlx.DB, req Request, stmt Statement) (string, error) {
	var text string
	err := db.GetContext(ctx, &text, stmt.Query, stmt.Args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", &kindError{kind: KindNotFound, err: fmt.Errorf("Table %q: %w", req.Table, ErrNotFound)}
		}

		return "", err
	}

	return text, nil
}

func fetchAll(ctx context.Context, db *sqlx.DB, stmt Statement) (*ResultSet, error) {
	rows, err := db.QueryxContext(ctx, stmt.Query, stmt.Args...)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rows.Close() }()

	rs := &ResultSet{}
	rs.Columns, err = rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch column names: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch column types: %w", err)
	}

	rs.Types = make([]string, len(columnTypes))
	for i, columnType := range columnTypes {
		rs.Types[i] = columnType.DatabaseTypeName()
	}

	rs.Rows = [][]any{}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("Failed to scan row: %w", err)
		}

		rs.Rows = append(rs.Rows, row)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("Got a row error: %w", err)
	}

	return rs, nil
}

// fail logs the failure with its operation context and wraps it into an *Error.
func (e *Executor) fail(req Request, kind Kind, err error, logCtx logger.Ctx) error {
	opErr := newError(kind, req.Op, req.Target(), err)

	ctx := logger.Ctx{"kind": kind.String(), "err": err}
	for k, v := range logCtx {
		ctx[k] = v
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		ctx["sqlstate"] = string(pqErr.Code)
		ctx["detail"] = pqErr.Detail
	}

	logger.Error("Operation failed", ctx)

	return opErr
}

// formatArgs renders a column map for success messages.
func formatArgs(m map[string]any) string {
	out, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("%v", m)
	}

	return string(out)
}

// CreateDatabase creates a database on the server.
func (e *Executor) CreateDatabase(ctx context.Context, name string) (string, error) {
	return e.Run(ctx, Request{Op: OpCreateDatabase, Database: name})
}

// CreateTable creates a table from a column definition list such as "id INT PRIMARY KEY, name VARCHAR(255)".
func (e *Executor) CreateTable(ctx context.Context, table string, schema string) (string, error) {
	return e.Run(ctx, Request{Op: OpCreateTable, Table: table, Schema: schema})
}

// DropTable drops a table if it exists.
func (e *Executor) DropTable(ctx context.Context, table string) (string, error) {
	return e.Run(ctx, Request{Op: OpDropTable, Table: table})
}

// DescribeTable returns the CREATE TABLE statement of an existing table.
func (e *Executor) DescribeTable(ctx context.Context, table string) (string, error) {
	return e.Run(ctx, Request{Op: OpDescribeTable, Table: table})
}

// Insert inserts one row.
func (e *Executor) Insert(ctx context.Context, table string, data map[string]any) (string, error) {
	return e.Run(ctx, Request{Op: OpInsert, Table: table, Data: data})
}

// Select returns the matching rows as JSON. A nil condition selects every row.
func (e *Executor) Select(ctx context.Context, table string, condition map[string]any) (string, error) {
	return e.Run(ctx, Request{Op: OpSelect, Table: table, Condition: condition})
}

// Update sets data on the rows matching condition.
func (e *Executor) Update(ctx context.Context, table string, data map[string]any, condition map[string]any) (string, error) {
	return e.Run(ctx, Request{Op: OpUpdate, Table: table, Data: data, Condition: condition})
}

// Delete removes the rows matching condition. A nil condition deletes every row.
func (e *Executor) Delete(ctx context.Context, table string, condition map[string]any) (string, error) {
	return e.Run(ctx, Request{Op: OpDelete, Table: table, Condition: condition})
}
