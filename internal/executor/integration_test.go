package executor

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaussdb/gaussdb-mcp/internal/config"
	"github.com/gaussdb/gaussdb-mcp/internal/sys"
)

// newLiveExecutor returns an Executor for the server named by GAUSSDB_TEST_HOST, skipping the test if unset.
func newLiveExecutor(t *testing.T) *Executor {
	host := os.Getenv("GAUSSDB_TEST_HOST")
	if host == "" {
		t.Skip("GAUSSDB_TEST_HOST is not set")
	}

	t.Setenv(sys.Host, host)

	cfg, err := config.Load("")
	require.NoError(t, err)

	return New(cfg, nil)
}

func TestLiveRoundTrip(t *testing.T) {
	exec := newLiveExecutor(t)
	ctx := context.Background()
	table := fmt.Sprintf("mcp_test_%d", time.Now().UnixNano())

	_, err := exec.CreateTable(ctx, table, "id INT PRIMARY KEY, name VARCHAR(255), born DATE")
	require.NoError(t, err)

	defer func() {
		_, err := exec.DropTable(ctx, table)
		assert.NoError(t, err)
	}()

	ddl, err := exec.DescribeTable(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CREATE TABLE %s\n(\n    id integer NOT NULL,\n    name character varying(255),\n    born date\n);", table), ddl)

	_, err = exec.DescribeTable(ctx, "pg_catalog."+table)
	assert.True(t, IsKind(err, KindNotFound))

	_, err = exec.Insert(ctx, table, map[string]any{"id": 1, "name": "John", "born": "2024-01-05"})
	require.NoError(t, err)

	_, err = exec.Insert(ctx, table, map[string]any{"id": 1, "name": "Jane"})
	require.True(t, IsKind(err, KindExecution))

	text, err := exec.Select(ctx, table, nil)
	require.NoError(t, err)
	assert.Equal(t, `[{"id": 1, "name": "John", "born": "2024-01-05"}]`, text)

	_, err = exec.DescribeTable(ctx, table+"_missing")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestLiveUnreachable(t *testing.T) {
	newLiveExecutor(t)

	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.ConnectTimeout = 2

	_, err := New(cfg, nil).Select(context.Background(), "users", nil)
	assert.True(t, IsKind(err, KindConnection))
}
