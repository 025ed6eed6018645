package rest

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/canonical/lxd/lxd/response"
	"github.com/canonical/lxd/shared/logger"
	"github.com/gorilla/mux"

	"github.com/gaussdb/gaussdb-mcp/internal/rest/access"
	"github.com/gaussdb/gaussdb-mcp/internal/state"
)

// EndpointAction represents an action on an API endpoint.
type EndpointAction struct {
	Handler        func(state *state.State, r *http.Request) response.Response
	AllowUntrusted bool
}

// Endpoint represents a URL in our API.
type Endpoint struct {
	Name   string // Name for this endpoint.
	Path   string // Path pattern for this endpoint.
	Get    EndpointAction
	Post   EndpointAction
	Put    EndpointAction
	Delete EndpointAction

	AllowedDuringShutdown bool // Whether we should return Unavailable Error (503) if daemon is shutting down.
}

func handleAPIRequest(action EndpointAction, state *state.State, trusted bool, r *http.Request) response.Response {
	if action.Handler == nil {
		return response.NotImplemented(nil)
	}

	if !trusted && !action.AllowUntrusted {
		return response.Forbidden(nil)
	}

	return action.Handler(state, r)
}

// HandleEndpoint adds the endpoint to the mux router. A function variable is used to implement common logic
// before calling the endpoint action handler associated with the request method, if it exists.
func HandleEndpoint(state *state.State, mux *mux.Router, version string, e Endpoint) {
	url := "/" + version
	if e.Path != "" {
		url = filepath.Join(url, e.Path)
	}

	route := mux.HandleFunc(url, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// Return Unavailable Error (503) if daemon is shutting down, except for endpoints with AllowedDuringShutdown.
		if state.ShuttingDown() && !e.AllowedDuringShutdown {
			err := response.Unavailable(fmt.Errorf("Daemon is shutting down")).Render(w)
			if err != nil {
				logger.Error("Failed to write HTTP response", logger.Ctx{"url": r.URL, "err": err})
			}

			return
		}

		logger.Debug("Handling API request", logger.Ctx{"method": r.Method, "url": r.URL.RequestURI(), "remote": r.RemoteAddr})

		var resp response.Response
		trusted, err := access.Authenticate(state, r)
		if err != nil {
			resp = response.Forbidden(fmt.Errorf("Failed to authenticate request: %w", err))
		} else {
			switch r.Method {
			case http.MethodGet:
				resp = handleAPIRequest(e.Get, state, trusted, r)
			case http.MethodPost:
				resp = handleAPIRequest(e.Post, state, trusted, r)
			case http.MethodPut:
				resp = handleAPIRequest(e.Put, state, trusted, r)
			case http.MethodDelete:
				resp = handleAPIRequest(e.Delete, state, trusted, r)
			default:
				resp = response.NotFound(fmt.Errorf("Method '%s' not found", r.Method))
			}
		}

		// Handle errors.
		err = resp.Render(w)
		if err != nil {
			err := response.InternalError(err).Render(w)
			if err != nil {
				logger.Error("Failed writing error for HTTP response", logger.Ctx{"url": url, "error": err})
			}
		}
	})

	// If the endpoint has a canonical name then record it so it can be used to build URLS
	// and accessed in the context of the request by the handler function.
	if e.Name != "" {
		route.Name(e.Name)
	}
}
