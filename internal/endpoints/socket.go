package endpoints

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/user"
	"strconv"

	"github.com/canonical/lxd/shared"
	"github.com/canonical/lxd/shared/api"
	"github.com/canonical/lxd/shared/logger"
)

// socketMode lets the owner and the socket group connect.
const socketMode os.FileMode = 0660

// Socket is the control socket of the daemon.
type Socket struct {
	Path  string
	Group string // Group allowed to connect, the process group if empty.

	listener *net.UnixListener
	server   *http.Server

	ctx context.Context
}

// NewSocket prepares a control socket at the path carried by the host part of path.
func NewSocket(ctx context.Context, server *http.Server, path api.URL, group string) *Socket {
	return &Socket{
		Path:  path.Hostname(),
		Group: group,

		server: server,
		ctx:    ctx,
	}
}

// Kind returns KindControl.
func (s *Socket) Kind() Kind {
	return KindControl
}

// Address returns the socket path once it is bound.
func (s *Socket) Address() string {
	if s.listener == nil {
		return ""
	}

	return s.Path
}

// Listen binds the socket path, taking over a leftover socket file from a daemon that did not shut down
// cleanly, and restricts access to the owner and the socket group.
func (s *Socket) Listen() error {
	err := s.claimPath()
	if err != nil {
		return err
	}

	s.listener, err = net.ListenUnix("unix", &net.UnixAddr{Name: s.Path, Net: "unix"})
	if err != nil {
		return fmt.Errorf("Cannot bind control socket %q: %w", s.Path, err)
	}

	err = restrictSocket(s.Path, s.Group)
	if err != nil {
		_ = s.listener.Close()
		s.listener = nil
		return err
	}

	return nil
}

// claimPath fails if another daemon answers on the path, and removes the file otherwise.
func (s *Socket) claimPath() error {
	if !shared.PathExists(s.Path) {
		return nil
	}

	conn, err := net.Dial("unix", s.Path)
	if err == nil {
		_ = conn.Close()
		return fmt.Errorf("Control socket %q is already running", s.Path)
	}

	logger.Debug("Removing stale control socket", logger.Ctx{"socket": s.Path})

	err = os.Remove(s.Path)
	if err != nil {
		return fmt.Errorf("Could not delete stale control socket: %w", err)
	}

	return nil
}

// Serve answers API requests on the socket until it is closed.
func (s *Socket) Serve() {
	if s.listener == nil {
		return
	}

	logger.Info("Serving API on control socket", logger.Ctx{"socket": s.Path})

	listener := s.listener
	go func() {
		if s.ctx.Err() != nil {
			return
		}

		err := s.server.Serve(listener)
		if err != nil && s.ctx.Err() == nil {
			logger.Error("Control socket server stopped", logger.Ctx{"socket": s.Path, "err": err})
		}
	}()
}

// Close stops accepting connections and removes the socket file.
func (s *Socket) Close() error {
	if s.listener == nil {
		return nil
	}

	logger.Info("Closing control socket", logger.Ctx{"socket": s.Path})

	err := s.listener.Close()
	s.listener = nil
	if err != nil {
		return err
	}

	err = os.Remove(s.Path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("Could not remove control socket: %w", err)
	}

	return nil
}

// restrictSocket gives the socket to the process user and the named group, or the process group.
func restrictSocket(path string, group string) error {
	gid := os.Getgid()
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			return fmt.Errorf("Cannot get group ID of %q: %w", group, err)
		}

		gid, err = strconv.Atoi(g.Gid)
		if err != nil {
			return err
		}
	}

	err := os.Chmod(path, socketMode)
	if err != nil {
		return fmt.Errorf("Cannot set permissions on control socket: %w", err)
	}

	err = os.Chown(path, os.Getuid(), gid)
	if err != nil {
		return fmt.Errorf("Cannot change ownership of control socket: %w", err)
	}

	return nil
}
