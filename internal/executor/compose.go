package executor

import (
	"fmt"
	"sort"
	"strings"
)

// Statement is SQL text with positional placeholders ($1, $2, ...) and the values bound to them.
type Statement struct {
	Query string
	Args  []any
}

// describeQuery rebuilds a CREATE TABLE statement from the catalog. Columns appear in their physical order
// and only non-nullable columns carry NOT NULL. $1 is the relation name and $2 its schema, NULL meaning the
// current schema.
const describeQuery = `
SELECT
    'CREATE TABLE ' || relname || E'\n(\n' ||
    string_agg(
        '    ' || column_name || ' ' || data_type ||
        CASE WHEN is_nullable = 'NO' THEN ' NOT NULL' ELSE '' END,
        E',\n' ORDER BY attnum
    ) || E'\n);' AS create_table_sql
FROM (
    SELECT
        n.nspname,
        c.relname,
        a.attnum,
        a.attname AS column_name,
        pg_catalog.format_type(a.atttypid, a.atttypmod) AS data_type,
        col.is_nullable
    FROM pg_class c
    JOIN pg_namespace n ON n.oid = c.relnamespace
    JOIN pg_attribute a ON a.attrelid = c.oid
    JOIN information_schema.columns col
        ON col.table_schema = n.nspname AND col.table_name = c.relname AND col.column_name = a.attname
    WHERE c.relkind = 'r'
        AND a.attnum > 0
        AND NOT a.attisdropped
        AND c.relname = $1
        AND n.nspname = COALESCE($2, current_schema())
) AS table_info
GROUP BY nspname, relname`

// Compose builds the statement for a validated request.
func Compose(req Request) (Statement, error) {
	switch req.Op {
	case OpCreateDatabase:
		return Statement{Query: "CREATE DATABASE " + req.Database}, nil
	case OpCreateTable:
		return Statement{Query: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", req.Table, req.Schema)}, nil
	case OpDropTable:
		return Statement{Query: "DROP TABLE IF EXISTS " + req.Table}, nil
	case OpDescribeTable:
		schema, name := splitTableName(req.Table)
		return Statement{Query: describeQuery, Args: []any{name, schema}}, nil
	case OpInsert:
		return composeInsert(req.Table, req.Data), nil
	case OpSelect:
		return composeFiltered("SELECT * FROM "+req.Table, req.Condition), nil
	case OpUpdate:
		return composeUpdate(req.Table, req.Data, req.Condition), nil
	case OpDelete:
		return composeFiltered("DELETE FROM "+req.Table, req.Condition), nil
	}

	return Statement{}, fmt.Errorf("Unsupported operation %q", req.Op)
}

func composeInsert(table string, data map[string]any) Statement {
	columns := sortedKeys(data)
	placeholders := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for i, column := range columns {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, data[column])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	return Statement{Query: query, Args: args}
}

func composeUpdate(table string, data map[string]any, condition map[string]any) Statement {
	columns := sortedKeys(data)
	assignments := make([]string, 0, len(columns))
	args := make([]any, 0, len(data)+len(condition))
	for _, column := range columns {
		args = append(args, data[column])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	where, args := whereClause(condition, args)
	query := fmt.Sprintf("UPDATE %s SET %s%s", table, strings.Join(assignments, ", "), where)

	return Statement{Query: query, Args: args}
}

func composeFiltered(prefix string, condition map[string]any) Statement {
	where, args := whereClause(condition, nil)

	return Statement{Query: prefix + where, Args: args}
}

// whereClause renders a conjunctive equality filter, numbering placeholders after the args already bound.
// An empty condition yields no clause at all.
func whereClause(condition map[string]any, args []any) (string, []any) {
	if len(condition) == 0 {
		return "", args
	}

	columns := sortedKeys(condition)
	conjuncts := make([]string, 0, len(columns))
	for _, column := range columns {
		args = append(args, condition[column])
		conjuncts = append(conjuncts, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	return " WHERE " + strings.Join(conjuncts, " AND "), args
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// splitTableName separates an optional schema qualifier from the relation name. The schema is nil when the
// name is unqualified so the statement falls back to the current schema.
func splitTableName(table string) (any, string) {
	schema, name, found := strings.Cut(table, ".")
	if !found {
		return nil, table
	}

	return schema, name
}
