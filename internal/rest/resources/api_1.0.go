package resources

import (
	"net/http"

	"github.com/canonical/lxd/lxd/response"

	"github.com/gaussdb/gaussdb-mcp/internal/extensions"
	"github.com/gaussdb/gaussdb-mcp/internal/mcp"
	"github.com/gaussdb/gaussdb-mcp/internal/rest"
	"github.com/gaussdb/gaussdb-mcp/internal/rest/types"
	"github.com/gaussdb/gaussdb-mcp/internal/state"
)

var api10Cmd = rest.Endpoint{
	AllowedDuringShutdown: true,

	Get: rest.EndpointAction{Handler: api10Get, AllowUntrusted: true},
}

func api10Get(s *state.State, r *http.Request) response.Response {
	registry, err := extensions.APIExtensions()
	if err != nil {
		return response.InternalError(err)
	}

	return response.SyncResponse(true, types.Server{
		Name:          mcp.ServerName,
		Version:       s.Version,
		Database:      s.Config.Database,
		Address:       s.Config.Address(),
		Tools:         len(s.Tools.List()),
		APIExtensions: registry,
	})
}
