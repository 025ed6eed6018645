package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"

	"github.com/gaussdb/gaussdb-mcp/internal/executor"
)

// ParseResponse takes a http response, parses it and returns the extracted result.
func ParseResponse(resp *http.Response) (*api.Response, error) {
	defer func() { _ = resp.Body.Close() }()

	// Decode the response
	decoder := json.NewDecoder(resp.Body)
	response := api.Response{}

	err := decoder.Decode(&response)
	if err != nil {
		// Check the return value for a cleaner error
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("Failed to fetch %q: %q", resp.Request.URL.String(), resp.Status)
		}

		return nil, err
	}

	// Handle errors
	if response.Type == api.ErrorResponse {
		return nil, api.StatusErrorf(resp.StatusCode, "%s", response.Error)
	}

	_, err = io.Copy(io.Discard, resp.Body)
	if err != nil {
		logger.Error("Failed to read response body", logger.Ctx{"error": err})
	}

	return &response, nil
}

// ErrorKind returns the kind of failure reported by the daemon, or 0 if err did not come from a tool call
// answered by the daemon.
func ErrorKind(err error) executor.Kind {
	code, found := api.StatusErrorMatch(err)
	if !found {
		return 0
	}

	return executor.KindFromHTTPStatus(code)
}
