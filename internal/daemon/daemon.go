package daemon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/canonical/lxd/lxd/request"
	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/logger"
	"github.com/canonical/lxd/shared/validate"
	"github.com/gorilla/mux"

	"github.com/gaussdb/gaussdb-mcp/internal/config"
	"github.com/gaussdb/gaussdb-mcp/internal/endpoints"
	"github.com/gaussdb/gaussdb-mcp/internal/executor"
	"github.com/gaussdb/gaussdb-mcp/internal/mcp"
	"github.com/gaussdb/gaussdb-mcp/internal/rest"
	"github.com/gaussdb/gaussdb-mcp/internal/rest/resources"
	"github.com/gaussdb/gaussdb-mcp/internal/state"
	"github.com/gaussdb/gaussdb-mcp/internal/sys"
	"github.com/gaussdb/gaussdb-mcp/internal/tools"
)

// Args configures a Daemon.
type Args struct {
	Config config.Config

	// Connector opens database connections. Defaults to a lib/pq connector built from Config.
	Connector executor.Connector

	// StateDir holds the control socket. Only used when the HTTP API is enabled.
	StateDir string

	// SocketGroup is given ownership of the control socket.
	SocketGroup string

	// ListenAddress of the network listener. Empty disables it.
	ListenAddress string

	// API enables the HTTP API on the control socket.
	API bool
}

// Daemon holds the tool catalogue and the listeners serving it.
type Daemon struct {
	version string

	config    config.Config
	os        *sys.OS
	executor  *executor.Executor
	tools     *tools.Catalog
	endpoints *endpoints.Endpoints
	state     *state.State

	ReadyChan         chan struct{}      // Closed when the daemon is fully ready.
	ShutdownRequested chan struct{}      // Closed when a client asks the daemon to stop.
	ShutdownCtx       context.Context    // Cancelled when shutdown starts.
	ShutdownCancel    context.CancelFunc // Cancels the shutdownCtx to indicate shutdown starting.

	shutdownOnce sync.Once
}

// NewDaemon initializes the Daemon context and channels.
func NewDaemon(version string) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())
	return &Daemon{
		version:           version,
		ShutdownCtx:       ctx,
		ShutdownCancel:    cancel,
		ReadyChan:         make(chan struct{}),
		ShutdownRequested: make(chan struct{}),
	}
}

// Init builds the executor and tool catalogue, and brings up the HTTP API if requested.
func (d *Daemon) Init(args Args) error {
	if args.StateDir == "" {
		args.StateDir = os.Getenv(sys.StateDir)
	}

	err := d.validateArgs(args)
	if err != nil {
		return fmt.Errorf("Invalid daemon configuration: %w", err)
	}

	d.config = args.Config

	d.executor = executor.New(d.config, args.Connector)
	d.tools = tools.NewCatalog(d.executor)
	d.state = &state.State{
		Context:       d.ShutdownCtx,
		ReadyCh:       d.ReadyChan,
		Shutdown:      d.RequestShutdown,
		Config:        d.config,
		Tools:         d.tools,
		Version:       d.version,
		ListenAddress: args.ListenAddress,
	}

	if args.API || args.ListenAddress != "" {
		err = d.initAPI(args)
		if err != nil {
			return fmt.Errorf("Daemon failed to start: %w", err)
		}
	}

	logger.Info("Daemon started", logger.Ctx{"version": d.version, "database": d.config.Database, "address": d.config.Address()})

	close(d.ReadyChan)

	return nil
}

func (d *Daemon) initAPI(args Args) error {
	var err error
	d.os, err = sys.DefaultOS(args.StateDir, true)
	if err != nil {
		return fmt.Errorf("Failed to initialize directory structure: %w", err)
	}

	d.state.OS = d.os

	server := d.initServer(resources.APIEndpoints)

	listeners := []endpoints.Listener{endpoints.NewSocket(d.ShutdownCtx, server, d.os.ControlSocket(), args.SocketGroup)}
	if args.ListenAddress != "" {
		listeners = append(listeners, endpoints.NewNetwork(d.ShutdownCtx, server, args.ListenAddress))
	}

	d.endpoints = endpoints.NewEndpoints(listeners...)
	d.state.Endpoints = d.endpoints

	err = d.endpoints.Up()
	if err != nil {
		return err
	}

	d.state.ListenAddress = d.endpoints.Address(endpoints.KindNetwork)

	return nil
}

func (d *Daemon) initServer(resources ...*resources.Resources) *http.Server {
	/* Setup the web server */
	mux := mux.NewRouter()
	mux.StrictSlash(false)
	mux.SkipClean(true)
	mux.UseEncodedPath()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		err := response.SyncResponse(true, []string{"/1.0"}).Render(w)
		if err != nil {
			logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
		}
	})

	mux.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Sending top level 404", logger.Ctx{"url": r.URL})
		w.Header().Set("Content-Type", "application/json")
		err := response.NotFound(nil).Render(w)
		if err != nil {
			logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
		}
	})

	for _, endpoints := range resources {
		for _, e := range endpoints.Endpoints {
			rest.HandleEndpoint(d.state, mux, endpoints.Path, e)
		}
	}

	return &http.Server{
		Handler:     mux,
		ConnContext: request.SaveConnectionInContext,
	}
}

func (d *Daemon) validateArgs(args Args) error {
	if args.ListenAddress != "" {
		isListenAddress := validate.IsListenAddress(true, true, false)
		err := isListenAddress(args.ListenAddress)
		if err != nil {
			return fmt.Errorf("Invalid listen address %q: %w", args.ListenAddress, err)
		}
	}

	return args.Config.Validate()
}

// ServeStdio answers MCP requests read from in until it is closed or the daemon stops.
func (d *Daemon) ServeStdio(in io.Reader, out io.Writer) error {
	return mcp.NewServer(d.tools, d.version).Serve(d.ShutdownCtx, in, out)
}

// RequestShutdown signals ShutdownRequested. The owner of the daemon is expected to call Stop.
func (d *Daemon) RequestShutdown() {
	d.shutdownOnce.Do(func() {
		logger.Info("Shutdown requested")
		close(d.ShutdownRequested)
	})
}

// State returns the state shared with the API handlers.
func (d *Daemon) State() *state.State {
	return d.state
}

// Stop cancels the shutdown context and closes any listeners.
func (d *Daemon) Stop() error {
	d.ShutdownCancel()

	if d.endpoints == nil {
		return nil
	}

	return d.endpoints.Down()
}
