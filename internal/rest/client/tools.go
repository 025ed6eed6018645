package client

import (
	"context"
	"net/http"

	"github.com/canonical/lxd/shared/api"

	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
)

// GetServer returns information about the daemon.
func (c *Client) GetServer(ctx context.Context) (*types.Server, error) {
	server := &types.Server{}
	err := c.QueryStruct(ctx, http.MethodGet, nil, nil, server)
	if err != nil {
		return nil, err
	}

	return server, nil
}

// ListTools returns the definition of every tool.
func (c *Client) ListTools(ctx context.Context) ([]types.Tool, error) {
	tools := []types.Tool{}
	err := c.QueryStruct(ctx, http.MethodGet, api.NewURL().Path("tools"), nil, &tools)
	if err != nil {
		return nil, err
	}

	return tools, nil
}

// GetTool returns the definition of the named tool.
func (c *Client) GetTool(ctx context.Context, name string) (*types.Tool, error) {
	tool := &types.Tool{}
	err := c.QueryStruct(ctx, http.MethodGet, api.NewURL().Path("tools", name), nil, tool)
	if err != nil {
		return nil, err
	}

	return tool, nil
}

// CallTool runs the named tool and returns its text result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	result := types.ToolResult{}
	err := c.QueryStruct(ctx, http.MethodPost, api.NewURL().Path("tools", name), types.ToolCall{Arguments: args}, &result)
	if err != nil {
		return "", err
	}

	return result.Text, nil
}
