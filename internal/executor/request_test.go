package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateIdentifier(t *testing.T) {
	cases := []struct {
		name      string
		input     string
		wantError bool
	}{
		{"Lower case", "users", false},
		{"Mixed case with digits", "Order2024", false},
		{"Leading underscore", "_private", false},
		{"Dollar inside", "a$b", false},
		{"Empty", "", true},
		{"Leading digit", "1users", true},
		{"Leading dollar", "$users", true},
		{"Space", "user name", true},
		{"Injection attempt", "users; DROP TABLE users", true},
		{"Quote", `users"`, true},
		{"Hyphen", "user-name", true},
		{"Too long", strings.Repeat("a", 64), true},
		{"Longest allowed", strings.Repeat("a", 63), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := ValidateIdentifier(c.input)
			if c.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateTableName(t *testing.T) {
	assert.NoError(t, ValidateTableName("public.users"))
	assert.Error(t, ValidateTableName("a.b.c"))
	assert.Error(t, ValidateTableName("public."))
	assert.Error(t, ValidateTableName(".users"))
}

func TestRequestValidate(t *testing.T) {
	cases := []struct {
		name      string
		req       Request
		wantError bool
	}{
		{"Create database", Request{Op: OpCreateDatabase, Database: "shop"}, false},
		{"Create database bad name", Request{Op: OpCreateDatabase, Database: "shop; DROP"}, true},
		{"Create table", Request{Op: OpCreateTable, Table: "t", Schema: "id INT"}, false},
		{"Create table empty schema", Request{Op: OpCreateTable, Table: "t", Schema: "   "}, true},
		{"Drop table", Request{Op: OpDropTable, Table: "t"}, false},
		{"Drop table without name", Request{Op: OpDropTable}, true},
		{"Describe table", Request{Op: OpDescribeTable, Table: "t"}, false},
		{"Insert", Request{Op: OpInsert, Table: "t", Data: map[string]any{"id": 1}}, false},
		{"Insert empty data", Request{Op: OpInsert, Table: "t", Data: map[string]any{}}, true},
		{"Insert nil data", Request{Op: OpInsert, Table: "t"}, true},
		{"Insert bad column", Request{Op: OpInsert, Table: "t", Data: map[string]any{"id) VALUES (1); --": 1}}, true},
		{"Select without condition", Request{Op: OpSelect, Table: "t"}, false},
		{"Select bad condition column", Request{Op: OpSelect, Table: "t", Condition: map[string]any{"1=1 OR id": 1}}, true},
		{"Update", Request{Op: OpUpdate, Table: "t", Data: map[string]any{"a": 1}, Condition: map[string]any{"id": 1}}, false},
		{"Update without condition", Request{Op: OpUpdate, Table: "t", Data: map[string]any{"a": 1}}, true},
		{"Update without data", Request{Op: OpUpdate, Table: "t", Condition: map[string]any{"id": 1}}, true},
		{"Delete without condition", Request{Op: OpDelete, Table: "t"}, false},
		{"Unknown operation", Request{Op: "truncate", Table: "t"}, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.req.Validate()
			if c.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
