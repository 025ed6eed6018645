package resources

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/api"
	"github.com/gorilla/mux"

	"github.com/gaussdb/gaussdb-mcp/internal/executor"
	"github.com/gaussdb/gaussdb-mcp/internal/rest"
	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
	"github.com/gaussdb/gaussdb-mcp/internal/state"
	"github.com/gaussdb/gaussdb-mcp/internal/tools"
)

var toolsCmd = rest.Endpoint{
	Path: "tools",

	Get: rest.EndpointAction{Handler: toolsGet},
}

var toolCmd = rest.Endpoint{
	Name: "tool",
	Path: "tools/{name}",

	Get:  rest.EndpointAction{Handler: toolGet},
	Post: rest.EndpointAction{Handler: toolPost},
}

func toolsGet(s *state.State, r *http.Request) response.Response {
	return response.SyncResponse(true, s.Tools.List())
}

func toolGet(s *state.State, r *http.Request) response.Response {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		return response.BadRequest(err)
	}

	tool, err := s.Tools.Get(name)
	if err != nil {
		return toolError(err)
	}

	return response.SyncResponse(true, tool)
}

func toolPost(s *state.State, r *http.Request) response.Response {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		return response.BadRequest(err)
	}

	req := types.ToolCall{}
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	err = decoder.Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		return response.BadRequest(fmt.Errorf("Failed to parse tool call: %w", err))
	}

	text, err := s.Tools.Call(r.Context(), name, req.Arguments)
	if err != nil {
		return toolError(err)
	}

	return response.SyncResponse(true, types.ToolResult{Text: text})
}

// toolError maps a failed call to the status code of its error kind.
func toolError(err error) response.Response {
	if errors.Is(err, tools.ErrUnknownTool) {
		return response.NotFound(err)
	}

	kind := executor.KindOf(err)
	if kind == 0 {
		return response.SmartError(err)
	}

	return response.SmartError(api.StatusErrorf(kind.HTTPStatus(), "%s", err.Error()))
}
