package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
)

// CheckReady returns an error if the daemon is not ready to process requests.
func (c *Client) CheckReady(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	return c.QueryStruct(queryCtx, http.MethodGet, api.NewURL().Path("ready"), nil, nil)
}

// WaitReady polls the daemon until it is ready or ctx is done.
func (c *Client) WaitReady(ctx context.Context) error {
	var errLast error
	for i := 0; ; i++ {
		err := c.CheckReady(ctx)
		if err == nil {
			return nil
		}

		errLast = err

		// Only log after about 5 seconds, then every 5 seconds after 15 seconds.
		if i > 10 && (i < 30 || i%10 == 0) {
			logger.Debugf("Daemon is not ready yet (attempt %d): %v", i, err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("Daemon still not ready: %w", errLast)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// ShutdownDaemon asks the daemon to stop.
func (c *Client) ShutdownDaemon(ctx context.Context) error {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return c.QueryStruct(queryCtx, http.MethodPost, api.NewURL().Path("shutdown"), nil, nil)
}
