package resources

import (
	"fmt"
	"net/http"

	"github.com/canonical/lxd/lxd/response"

	"github.com/gaussdb/gaussdb-mcp/internal/rest"
	"github.com/gaussdb/gaussdb-mcp/internal/state"
)

var readyCmd = rest.Endpoint{
	Path:                  "ready",
	AllowedDuringShutdown: true,

	Get: rest.EndpointAction{Handler: readyGet},
}

var shutdownCmd = rest.Endpoint{
	Path:                  "shutdown",
	AllowedDuringShutdown: true,

	Post: rest.EndpointAction{Handler: shutdownPost},
}

func readyGet(s *state.State, r *http.Request) response.Response {
	if s.ShuttingDown() {
		return response.Unavailable(fmt.Errorf("Daemon is shutting down"))
	}

	select {
	case <-s.ReadyCh:
	default:
		return response.Unavailable(fmt.Errorf("Daemon is not ready yet"))
	}

	return response.EmptySyncResponse
}

func shutdownPost(s *state.State, r *http.Request) response.Response {
	if s.ShuttingDown() {
		return response.SmartError(fmt.Errorf("Shutdown already in progress"))
	}

	// The listeners are closed by the daemon owner once this response has been written.
	s.Shutdown()

	return response.EmptySyncResponse
}
