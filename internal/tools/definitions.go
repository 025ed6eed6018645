package tools

import (
	"github.com/gaussdb/gaussdb-mcp/internal/executor"
	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
)

const tableNameHelp = `Table name, for example "my_table". Must be a valid GaussDB identifier: letters, digits, underscores and dollar signs, not starting with a digit. May be qualified as "schema.table".`

type databaseArgs struct {
	DBName string `mapstructure:"db_name"`
}

type tableArgs struct {
	TableName string `mapstructure:"table_name"`
}

type createTableArgs struct {
	TableName string `mapstructure:"table_name"`
	Schema    string `mapstructure:"schema"`
}

type rowArgs struct {
	TableName string         `mapstructure:"table_name"`
	Data      map[string]any `mapstructure:"data"`
	Condition map[string]any `mapstructure:"condition"`
}

func schema(required []string, properties map[string]types.Property) types.InputSchema {
	return types.InputSchema{Type: "object", Properties: properties, Required: required}
}

var tableNameProperty = types.Property{Type: "string", Description: tableNameHelp}

var definitions = []tool{
	{
		Tool: types.Tool{
			Name:        "create_database",
			Description: "Create a database. Runs outside of any transaction.\n\nReturns a confirmation such as \"Successfully created database: <db_name>\".",
			InputSchema: schema([]string{"db_name"}, map[string]types.Property{
				"db_name": {Type: "string", Description: `Database name, for example "my_database". Must be a valid GaussDB identifier.`},
			}),
		},
		op: executor.OpCreateDatabase,
		request: func(args map[string]any) (executor.Request, error) {
			var a databaseArgs
			err := decodeArgs(args, &a)
			if err != nil {
				return executor.Request{}, err
			}

			return executor.Request{Op: executor.OpCreateDatabase, Database: a.DBName}, nil
		},
	},
	{
		Tool: types.Tool{
			Name:        "create_table",
			Description: "Create a table if it does not exist yet.\n\nReturns a confirmation such as \"Successfully created table: <table_name>\".",
			InputSchema: schema([]string{"table_name", "schema"}, map[string]types.Property{
				"table_name": tableNameProperty,
				"schema":     {Type: "string", Description: `Column definitions, for example "id INT PRIMARY KEY, name VARCHAR(255)".`},
			}),
		},
		op: executor.OpCreateTable,
		request: func(args map[string]any) (executor.Request, error) {
			var a createTableArgs
			err := decodeArgs(args, &a)
			if err != nil {
				return executor.Request{}, err
			}

			return executor.Request{Op: executor.OpCreateTable, Table: a.TableName, Schema: a.Schema}, nil
		},
	},
	{
		Tool: types.Tool{
			Name:        "drop_table",
			Description: "Drop a table if it exists.\n\nReturns a confirmation such as \"Successfully dropped table: <table_name>\".",
			InputSchema: schema([]string{"table_name"}, map[string]types.Property{
				"table_name": tableNameProperty,
			}),
		},
		op:      executor.OpDropTable,
		request: tableRequest(executor.OpDropTable),
	},
	{
		Tool: types.Tool{
			Name:        "get_create_table_sql",
			Description: "Get the CREATE TABLE statement of an existing table.\n\nReturns the statement text.",
			InputSchema: schema([]string{"table_name"}, map[string]types.Property{
				"table_name": tableNameProperty,
			}),
		},
		op:      executor.OpDescribeTable,
		request: tableRequest(executor.OpDescribeTable),
	},
	{
		Tool: types.Tool{
			Name:        "insert",
			Description: "Insert one row.\n\nReturns a confirmation such as \"Successfully inserted data into <table_name>\".",
			InputSchema: schema([]string{"table_name", "data"}, map[string]types.Property{
				"table_name": tableNameProperty,
				"data":       {Type: "object", Description: `Column to value mapping of the row, for example {"id": 1, "name": "John"}.`},
			}),
		},
		op:      executor.OpInsert,
		request: rowRequest(executor.OpInsert),
	},
	{
		Tool: types.Tool{
			Name:        "select",
			Description: "Query rows.\n\nReturns the matching rows as a JSON array of objects.",
			InputSchema: schema([]string{"table_name"}, map[string]types.Property{
				"table_name": tableNameProperty,
				"condition":  {Type: "object", Description: `Optional column to value mapping that every returned row must match, for example {"id": 1}. Omit it to return every row.`},
			}),
		},
		op:      executor.OpSelect,
		request: rowRequest(executor.OpSelect),
	},
	{
		Tool: types.Tool{
			Name:        "update",
			Description: "Update the rows matching a condition.\n\nReturns a confirmation such as \"Successfully updated <table_name>\".",
			InputSchema: schema([]string{"table_name", "data", "condition"}, map[string]types.Property{
				"table_name": tableNameProperty,
				"data":       {Type: "object", Description: `Column to value mapping to set, for example {"name": "John"}.`},
				"condition":  {Type: "object", Description: `Column to value mapping selecting the rows to update, for example {"id": 1}.`},
			}),
		},
		op:      executor.OpUpdate,
		request: rowRequest(executor.OpUpdate),
	},
	{
		Tool: types.Tool{
			Name:        "delete",
			Description: "Delete the rows matching a condition.\n\nReturns a confirmation such as \"Successfully deleted from <table_name>\".",
			InputSchema: schema([]string{"table_name"}, map[string]types.Property{
				"table_name": tableNameProperty,
				"condition":  {Type: "object", Description: `Optional column to value mapping selecting the rows to delete, for example {"id": 1}. Omit it to delete every row.`},
			}),
		},
		op:      executor.OpDelete,
		request: rowRequest(executor.OpDelete),
	},
}

func tableRequest(op executor.Operation) func(map[string]any) (executor.Request, error) {
	return func(args map[string]any) (executor.Request, error) {
		var a tableArgs
		err := decodeArgs(args, &a)
		if err != nil {
			return executor.Request{}, err
		}

		return executor.Request{Op: op, Table: a.TableName}, nil
	}
}

func rowRequest(op executor.Operation) func(map[string]any) (executor.Request, error) {
	return func(args map[string]any) (executor.Request, error) {
		var a rowArgs
		err := decodeArgs(args, &a)
		if err != nil {
			return executor.Request{}, err
		}

		return executor.Request{Op: op, Table: a.TableName, Data: exactValues(a.Data), Condition: exactValues(a.Condition)}, nil
	}
}
