package executor

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompose(t *testing.T) {
	tests := []struct {
		name      string
		req       Request
		wantQuery string
		wantArgs  []any
	}{
		{
			name:      "Create database",
			req:       Request{Op: OpCreateDatabase, Database: "shop"},
			wantQuery: "CREATE DATABASE shop",
		},
		{
			name:      "Create table",
			req:       Request{Op: OpCreateTable, Table: "users", Schema: "id INT PRIMARY KEY, name VARCHAR(255)"},
			wantQuery: "CREATE TABLE IF NOT EXISTS users (id INT PRIMARY KEY, name VARCHAR(255))",
		},
		{
			name:      "Drop table",
			req:       Request{Op: OpDropTable, Table: "users"},
			wantQuery: "DROP TABLE IF EXISTS users",
		},
		{
			name:      "Describe table binds the name as a value",
			req:       Request{Op: OpDescribeTable, Table: "users"},
			wantQuery: describeQuery,
			wantArgs:  []any{"users", nil},
		},
		{
			name:      "Describe schema qualified table",
			req:       Request{Op: OpDescribeTable, Table: "other.users"},
			wantQuery: describeQuery,
			wantArgs:  []any{"users", "other"},
		},
		{
			name:      "Insert",
			req:       Request{Op: OpInsert, Table: "users", Data: map[string]any{"name": "John", "id": 1}},
			wantQuery: "INSERT INTO users (id, name) VALUES ($1, $2)",
			wantArgs:  []any{1, "John"},
		},
		{
			name:      "Select everything",
			req:       Request{Op: OpSelect, Table: "users"},
			wantQuery: "SELECT * FROM users",
		},
		{
			name:      "Select with empty condition",
			req:       Request{Op: OpSelect, Table: "users", Condition: map[string]any{}},
			wantQuery: "SELECT * FROM users",
		},
		{
			name:      "Select with condition",
			req:       Request{Op: OpSelect, Table: "users", Condition: map[string]any{"name": "John", "id": 1}},
			wantQuery: "SELECT * FROM users WHERE id = $1 AND name = $2",
			wantArgs:  []any{1, "John"},
		},
		{
			name:      "Update binds data before condition",
			req:       Request{Op: OpUpdate, Table: "users", Data: map[string]any{"name": "Jane", "age": 30}, Condition: map[string]any{"id": 1}},
			wantQuery: "UPDATE users SET age = $1, name = $2 WHERE id = $3",
			wantArgs:  []any{30, "Jane", 1},
		},
		{
			name:      "Delete everything",
			req:       Request{Op: OpDelete, Table: "users"},
			wantQuery: "DELETE FROM users",
		},
		{
			name:      "Delete with condition",
			req:       Request{Op: OpDelete, Table: "users", Condition: map[string]any{"id": 1}},
			wantQuery: "DELETE FROM users WHERE id = $1",
			wantArgs:  []any{1},
		},
		{
			name:      "Null values are bound, not inlined",
			req:       Request{Op: OpInsert, Table: "users", Data: map[string]any{"name": nil}},
			wantQuery: "INSERT INTO users (name) VALUES ($1)",
			wantArgs:  []any{nil},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, test.req.Validate())

			stmt, err := Compose(test.req)
			require.NoError(t, err)

			assert.Equal(t, test.wantQuery, stmt.Query)
			assert.Equal(t, test.wantArgs, stmt.Args)
			assert.Equal(t, placeholderCount(stmt.Query), len(stmt.Args))
		})
	}
}

func TestDescribeQueryShape(t *testing.T) {
	query := strings.Join(strings.Fields(describeQuery), " ")

	// Columns are aggregated in physical order.
	agg := strings.Index(query, "string_agg(")
	require.NotEqual(t, -1, agg)
	orderBy := strings.Index(query, "ORDER BY attnum")
	require.Greater(t, orderBy, agg)
	assert.Less(t, orderBy, strings.Index(query, ") || E'\\n);'"))

	// Only non-nullable columns are marked.
	assert.Contains(t, query, "CASE WHEN is_nullable = 'NO' THEN ' NOT NULL' ELSE '' END")

	// The lookup is scoped to one schema and never merges relations of the same name.
	assert.Contains(t, query, "AND c.relname = $1")
	assert.Contains(t, query, "AND n.nspname = COALESCE($2, current_schema())")
	assert.Contains(t, query, "col.table_schema = n.nspname")
	assert.True(t, strings.HasSuffix(query, "GROUP BY nspname, relname"))
}

func TestComposeUnsupported(t *testing.T) {
	_, err := Compose(Request{Op: "truncate", Table: "users"})
	assert.Error(t, err)
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

func placeholderCount(query string) int {
	return len(placeholderPattern.FindAllString(query, -1))
}

func columnMap(n int) map[string]any {
	m := make(map[string]any, n)
	for i := 0; i < n; i++ {
		m[fmt.Sprintf("col_%02d", i)] = fmt.Sprintf("value %d", i)
	}

	return m
}

func TestComposeInsertPlaceholders(t *testing.T) {
	for n := 1; n <= 20; n++ {
		data := columnMap(n)
		stmt, err := Compose(Request{Op: OpInsert, Table: "t", Data: data})
		require.NoError(t, err)

		assert.Equal(t, n, placeholderCount(stmt.Query))
		require.Len(t, stmt.Args, n)

		open := strings.Index(stmt.Query, "(")
		closing := strings.Index(stmt.Query, ")")
		columns := strings.Split(stmt.Query[open+1:closing], ", ")
		require.Len(t, columns, n)

		for i, column := range columns {
			assert.Equal(t, data[column], stmt.Args[i], "value of column %q", column)
		}
	}
}

func TestComposeWhereConjuncts(t *testing.T) {
	for n := 1; n <= 20; n++ {
		condition := columnMap(n)

		for _, op := range []Operation{OpSelect, OpDelete} {
			stmt, err := Compose(Request{Op: op, Table: "t", Condition: condition})
			require.NoError(t, err)

			_, where, found := strings.Cut(stmt.Query, " WHERE ")
			require.True(t, found)

			conjuncts := strings.Split(where, " AND ")
			require.Len(t, conjuncts, n)
			require.Len(t, stmt.Args, n)

			for i, conjunct := range conjuncts {
				column, placeholder, found := strings.Cut(conjunct, " = ")
				require.True(t, found)
				assert.Equal(t, fmt.Sprintf("$%d", i+1), placeholder)
				assert.Equal(t, condition[column], stmt.Args[i])
			}
		}
	}
}

func TestComposeUpdateOrdering(t *testing.T) {
	data := columnMap(3)
	condition := map[string]any{"id": 7, "tenant": "acme"}

	stmt, err := Compose(Request{Op: OpUpdate, Table: "t", Data: data, Condition: condition})
	require.NoError(t, err)

	assert.Equal(t, "UPDATE t SET col_00 = $1, col_01 = $2, col_02 = $3 WHERE id = $4 AND tenant = $5", stmt.Query)
	assert.Equal(t, []any{"value 0", "value 1", "value 2", 7, "acme"}, stmt.Args)
}
