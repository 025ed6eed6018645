package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaussdb/gaussdb-mcp/internal/executor"
	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
	"github.com/gaussdb/gaussdb-mcp/internal/tools"
)

type fakeCatalog struct {
	call func(ctx context.Context, name string, args map[string]any) (string, error)
}

func (c *fakeCatalog) List() []types.Tool {
	return []types.Tool{{Name: "select", Description: "Query rows.", InputSchema: types.InputSchema{Type: "object"}}}
}

func (c *fakeCatalog) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	return c.call(ctx, name, args)
}

type requestRunner struct {
	mu       sync.Mutex
	requests []executor.Request
}

func (r *requestRunner) Run(ctx context.Context, req executor.Request) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)

	return "ok", nil
}

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

// serve feeds the given lines to a server and returns its responses keyed by ID.
func serve(t *testing.T, catalog Catalog, lines ...string) map[string]rawResponse {
	out := &bytes.Buffer{}
	server := NewServer(catalog, "1.0.0")

	err := server.Serve(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"), out)
	require.NoError(t, err)

	responses := map[string]rawResponse{}
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		var resp rawResponse
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
		assert.Equal(t, "2.0", resp.JSONRPC)

		_, exists := responses[string(resp.ID)]
		require.False(t, exists, "Duplicate response for ID %s", resp.ID)
		responses[string(resp.ID)] = resp
	}

	require.NoError(t, scanner.Err())

	return responses
}

func TestServeSession(t *testing.T) {
	catalog := &fakeCatalog{call: func(ctx context.Context, name string, args map[string]any) (string, error) {
		return fmt.Sprintf("%s on %v", name, args["table_name"]), nil
	}}

	responses := serve(t, catalog,
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"0.1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
		`{"jsonrpc":"2.0","id":"three","method":"tools/call","params":{"name":"select","arguments":{"table_name":"users"}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"ping"}`,
	)

	require.Len(t, responses, 4)

	var init InitializeResult
	require.NoError(t, json.Unmarshal(responses["1"].Result, &init))
	assert.Equal(t, ProtocolVersion, init.ProtocolVersion)
	assert.Equal(t, Implementation{Name: "GaussDBMCP", Version: "1.0.0"}, init.ServerInfo)
	assert.NotNil(t, init.Capabilities.Tools)

	var list ListToolsResult
	require.NoError(t, json.Unmarshal(responses["2"].Result, &list))
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "select", list.Tools[0].Name)

	var call CallToolResult
	require.NoError(t, json.Unmarshal(responses[`"three"`].Result, &call))
	assert.Equal(t, CallToolResult{Content: []Content{{Type: "text", Text: "select on users"}}}, call)

	assert.JSONEq(t, `{}`, string(responses["4"].Result))
	assert.Nil(t, responses["4"].Error)
}

func TestServeToolFailure(t *testing.T) {
	catalog := &fakeCatalog{call: func(ctx context.Context, name string, args map[string]any) (string, error) {
		return "", &executor.Error{Kind: executor.KindExecution, Op: executor.OpInsert, Table: "users", Err: errors.New("duplicate key")}
	}}

	responses := serve(t, catalog,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"insert","arguments":{"table_name":"users","data":{"id":1}}}}`,
	)

	resp := responses["1"]
	require.Nil(t, resp.Error)

	var call CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &call))
	assert.True(t, call.IsError)
	require.Len(t, call.Content, 1)
	assert.Equal(t, "Failed to insert data into users: duplicate key", call.Content[0].Text)
}

func TestServeProtocolErrors(t *testing.T) {
	catalog := &fakeCatalog{call: func(ctx context.Context, name string, args map[string]any) (string, error) {
		return "", fmt.Errorf("%w %q", tools.ErrUnknownTool, name)
	}}

	tests := []struct {
		name string
		line string
		id   string
		code int
	}{
		{name: "Malformed JSON", line: `{"jsonrpc":"2.0","id":1,`, id: "null", code: CodeParseError},
		{name: "Wrong version", line: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, id: "1", code: CodeInvalidRequest},
		{name: "Missing method", line: `{"jsonrpc":"2.0","id":1}`, id: "1", code: CodeInvalidRequest},
		{name: "Unknown method", line: `{"jsonrpc":"2.0","id":1,"method":"resources/list"}`, id: "1", code: CodeMethodNotFound},
		{name: "Tool call without params", line: `{"jsonrpc":"2.0","id":1,"method":"tools/call"}`, id: "1", code: CodeInvalidParams},
		{name: "Tool call without name", line: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"arguments":{}}}`, id: "1", code: CodeInvalidParams},
		{name: "Unknown tool", line: `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"truncate"}}`, id: "1", code: CodeInvalidParams},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			responses := serve(t, catalog, test.line)
			require.Len(t, responses, 1)

			resp, ok := responses[test.id]
			require.True(t, ok)
			require.NotNil(t, resp.Error)
			assert.Equal(t, test.code, resp.Error.Code)
		})
	}
}

func TestServeKeepsIntegersExact(t *testing.T) {
	var got map[string]any
	catalog := &fakeCatalog{call: func(ctx context.Context, name string, args map[string]any) (string, error) {
		got = args
		return "ok", nil
	}}

	responses := serve(t, catalog,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"insert","arguments":{"table_name":"users","data":{"id":9007199254740993}}}}`,
	)

	require.Len(t, responses, 1)
	require.Nil(t, responses["1"].Error)

	data, ok := got["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, json.Number("9007199254740993"), data["id"])
}

func TestServeBindsIntegersExactly(t *testing.T) {
	runner := &requestRunner{}

	responses := serve(t, tools.NewCatalog(runner),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete","arguments":{"table_name":"users","condition":{"id":9007199254740993}}}}`,
	)

	require.Len(t, responses, 1)
	require.Len(t, runner.requests, 1)

	stmt, err := executor.Compose(runner.requests[0])
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", stmt.Query)
	assert.Equal(t, []any{int64(9007199254740993)}, stmt.Args)
}

func TestServeIgnoresNotificationsAndBlankLines(t *testing.T) {
	catalog := &fakeCatalog{}

	responses := serve(t, catalog,
		``,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`   `,
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}`,
	)

	assert.Empty(t, responses)
}

func TestServeConcurrentCalls(t *testing.T) {
	const calls = 5

	// Every call waits until all of them have started, which only completes if they run concurrently.
	var started sync.WaitGroup
	started.Add(calls)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	catalog := &fakeCatalog{call: func(ctx context.Context, name string, args map[string]any) (string, error) {
		started.Done()

		select {
		case <-allStarted:
			return fmt.Sprintf("%v", args["table_name"]), nil
		case <-time.After(10 * time.Second):
			return "", errors.New("Calls were not dispatched concurrently")
		}
	}}

	lines := make([]string, 0, calls)
	for i := 0; i < calls; i++ {
		lines = append(lines, fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"select","arguments":{"table_name":"t%d"}}}`, i, i))
	}

	responses := serve(t, catalog, lines...)
	require.Len(t, responses, calls)

	for i := 0; i < calls; i++ {
		var call CallToolResult
		require.NoError(t, json.Unmarshal(responses[fmt.Sprintf("%d", i)].Result, &call))
		assert.False(t, call.IsError)
		assert.Equal(t, fmt.Sprintf("t%d", i), call.Content[0].Text)
	}
}

func TestServeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := NewServer(&fakeCatalog{}, "1.0.0")

	// A reader that never returns data.
	in, w := io.Pipe()
	defer func() { _ = w.Close() }()

	err := server.Serve(ctx, in, &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
