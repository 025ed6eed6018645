package endpoints

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/canonical/lxd/lxd/util"
	"github.com/canonical/lxd/shared/logger"
)

// DefaultPort is used when the listen address carries no port.
const DefaultPort = 8090

// Network represents a plain HTTP listener and its server.
type Network struct {
	address string

	listener net.Listener
	server   *http.Server

	ctx    context.Context
	cancel context.CancelFunc
}

// NewNetwork assigns an address and server to the Network.
func NewNetwork(ctx context.Context, server *http.Server, address string) *Network {
	ctx, cancel := context.WithCancel(ctx)

	return &Network{
		address: address,

		server: server,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Kind returns KindNetwork.
func (n *Network) Kind() Kind {
	return KindNetwork
}

// Listen on the given address.
func (n *Network) Listen() error {
	listenAddress := util.CanonicalNetworkAddress(n.address, DefaultPort)
	protocol := "tcp"

	if strings.HasPrefix(listenAddress, "0.0.0.0") {
		protocol = "tcp4"
	}

	conn, err := net.Dial(protocol, listenAddress)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("%q listener with address %q is already running", protocol, listenAddress)
	}

	n.listener, err = net.Listen(protocol, listenAddress)
	if err != nil {
		return fmt.Errorf("Failed to listen on http socket: %w", err)
	}

	return nil
}

// Address returns the host and port the listener is bound to, empty before Listen.
func (n *Network) Address() string {
	if n.listener == nil {
		return ""
	}

	return n.listener.Addr().String()
}

// Serve answers API requests on the listener until it is closed.
func (n *Network) Serve() {
	if n.listener == nil {
		return
	}

	logger.Info("Serving API on network address", logger.Ctx{"address": n.Address()})

	listener := n.listener
	go func() {
		if n.ctx.Err() != nil {
			return
		}

		err := n.server.Serve(listener)
		if err != nil && n.ctx.Err() == nil {
			logger.Error("Network API server stopped", logger.Ctx{"address": listener.Addr().String(), "err": err})
		}
	}()
}

// Close stops accepting connections.
func (n *Network) Close() error {
	if n.listener == nil {
		return nil
	}

	logger.Info("Closing network listener", logger.Ctx{"address": n.Address()})
	n.cancel()

	return n.listener.Close()
}
