package state

import (
	"context"

	"github.com/gaussdb/gaussdb-mcp/internal/config"
	"github.com/gaussdb/gaussdb-mcp/internal/endpoints"
	"github.com/gaussdb/gaussdb-mcp/internal/sys"
	"github.com/gaussdb/gaussdb-mcp/internal/tools"
)

// State is a gateway to the components of the daemon shared by the API handlers.
type State struct {
	// Context is cancelled when the daemon shuts down.
	Context context.Context

	// ReadyCh is closed once the daemon has finished starting.
	ReadyCh <-chan struct{}

	// Shutdown asks the daemon process to stop. Calling it more than once has no further effect.
	Shutdown func()

	// File structure.
	OS *sys.OS

	// Config the executor was built from.
	Config config.Config

	// Tools exposed over every transport.
	Tools *tools.Catalog

	// Server.
	Endpoints *endpoints.Endpoints

	// Version of the daemon.
	Version string

	// ListenAddress of the network listener, empty if only the unix socket is served.
	ListenAddress string
}

// ShuttingDown reports whether the daemon has started stopping.
func (s *State) ShuttingDown() bool {
	return s.Context.Err() != nil
}
