package resources

import (
	"github.com/gaussdb/gaussdb-mcp/internal/rest"
)

// Resources represents all the resources served over the same path.
type Resources struct {
	Path      string
	Endpoints []rest.Endpoint
}

// APIEndpoints are the /1.0 API endpoints, served over both the unix socket and the network listener.
var APIEndpoints = &Resources{
	Path: "1.0",
	Endpoints: []rest.Endpoint{
		api10Cmd,
		toolsCmd,
		toolCmd,
		readyCmd,
		shutdownCmd,
	},
}
