package access

import (
	"crypto/subtle"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/canonical/lxd/shared/logger"

	"github.com/gaussdb/gaussdb-mcp/internal/state"
)

// Authenticate decides whether a request may use the API.
//   - Requests over the unix socket are always allowed.
//   - With an API token configured, network requests must present it as a bearer token.
//   - Without one, only requests from loopback addresses are allowed.
func Authenticate(state *state.State, r *http.Request) (bool, error) {
	if r.RemoteAddr == "@" || r.RemoteAddr == "" {
		return true, nil
	}

	token := state.Config.APIToken
	if token != "" {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			return false, nil
		}

		presented, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok {
			return false, fmt.Errorf("Unsupported authorization scheme")
		}

		return subtle.ConstantTimeCompare([]byte(presented), []byte(token)) == 1, nil
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return false, fmt.Errorf("Invalid remote address %q: %w", r.RemoteAddr, err)
	}

	ip := net.ParseIP(host)
	if ip == nil || !ip.IsLoopback() {
		logger.Debug("Rejecting request from non-loopback address without API token", logger.Ctx{"remote": r.RemoteAddr})
		return false, nil
	}

	return true, nil
}
