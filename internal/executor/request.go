package executor

import (
	"fmt"
	"regexp"
	"strings"
)

// Operation is one of the fixed set of supported actions.
type Operation string

const (
	// OpCreateDatabase creates a new database.
	OpCreateDatabase Operation = "create-database"

	// OpCreateTable creates a table if it does not already exist.
	OpCreateTable Operation = "create-table"

	// OpDropTable drops a table if it exists.
	OpDropTable Operation = "drop-table"

	// OpDescribeTable reconstructs the CREATE TABLE statement of a table.
	OpDescribeTable Operation = "describe-table"

	// OpInsert inserts one row.
	OpInsert Operation = "insert"

	// OpSelect reads rows matching an optional condition.
	OpSelect Operation = "select"

	// OpUpdate updates rows matching a condition.
	OpUpdate Operation = "update"

	// OpDelete deletes rows matching an optional condition.
	OpDelete Operation = "delete"
)

// Operations lists every supported operation.
var Operations = []Operation{
	OpCreateDatabase,
	OpCreateTable,
	OpDropTable,
	OpDescribeTable,
	OpInsert,
	OpSelect,
	OpUpdate,
	OpDelete,
}

func (o Operation) action() string {
	switch o {
	case OpCreateDatabase:
		return "create database"
	case OpCreateTable:
		return "create table"
	case OpDropTable:
		return "drop table"
	case OpDescribeTable:
		return "get create table SQL for"
	case OpInsert:
		return "insert data into"
	case OpSelect:
		return "select from"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete from"
	default:
		return fmt.Sprintf("run %q on", string(o))
	}
}

func (o Operation) valid() bool {
	for _, op := range Operations {
		if o == op {
			return true
		}
	}

	return false
}

// isWrite reports whether the operation modifies rows and so runs inside an explicit transaction.
func (o Operation) isWrite() bool {
	return o == OpInsert || o == OpUpdate || o == OpDelete
}

// Request is a single operation invocation.
type Request struct {
	Op Operation

	// Database is the database name, only used by OpCreateDatabase.
	Database string

	Table     string
	Schema    string
	Data      map[string]any
	Condition map[string]any
}

// Target returns the name the request acts on, for messages and logging.
func (r Request) Target() string {
	if r.Op == OpCreateDatabase {
		return r.Database
	}

	return r.Table
}

// maxIdentifierLength is the PostgreSQL NAMEDATALEN limit minus the terminator.
const maxIdentifierLength = 63

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]*$`)

// ValidateIdentifier checks that name is a plain SQL identifier: letters, digits, underscore and
// dollar sign, not starting with a digit or dollar sign.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("Identifier cannot be empty")
	}

	if len(name) > maxIdentifierLength {
		return fmt.Errorf("Identifier %q is longer than %d characters", name, maxIdentifierLength)
	}

	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("Identifier %q contains invalid characters", name)
	}

	return nil
}

// ValidateTableName checks a table name, optionally qualified by a schema name ("schema.table").
func ValidateTableName(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("Table name %q has too many qualifiers", name)
	}

	for _, part := range parts {
		err := ValidateIdentifier(part)
		if err != nil {
			return fmt.Errorf("Invalid table name: %w", err)
		}
	}

	return nil
}

// Validate checks the request before any connection is acquired or SQL composed.
func (r Request) Validate() error {
	if !r.Op.valid() {
		return fmt.Errorf("Unsupported operation %q", r.Op)
	}

	if r.Op == OpCreateDatabase {
		err := ValidateIdentifier(r.Database)
		if err != nil {
			return fmt.Errorf("Invalid database name: %w", err)
		}

		return nil
	}

	err := ValidateTableName(r.Table)
	if err != nil {
		return err
	}

	switch r.Op {
	case OpCreateTable:
		if strings.TrimSpace(r.Schema) == "" {
			return fmt.Errorf("Cannot create table %s: schema is empty", r.Table)
		}

	case OpInsert:
		if len(r.Data) == 0 {
			return fmt.Errorf("Insert data cannot be empty")
		}

	case OpUpdate:
		if len(r.Data) == 0 {
			return fmt.Errorf("Update data cannot be empty")
		}

		if len(r.Condition) == 0 {
			return fmt.Errorf("Update condition cannot be empty")
		}
	}

	for column := range r.Data {
		err := ValidateIdentifier(column)
		if err != nil {
			return fmt.Errorf("Invalid column in data: %w", err)
		}
	}

	for column := range r.Condition {
		err := ValidateIdentifier(column)
		if err != nil {
			return fmt.Errorf("Invalid column in condition: %w", err)
		}
	}

	return nil
}
