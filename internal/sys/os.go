package sys

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/canonical/lxd/shared/api"
)

// DefaultStateDir is used when no state directory is given.
const DefaultStateDir = "/var/lib/gaussdb-mcp"

// OS contains fields and methods for interacting with the state directory.
type OS struct {
	StateDir string
}

// DefaultOS returns an OS rooted at stateDir, creating the directory if requested.
func DefaultOS(stateDir string, createDir bool) (*OS, error) {
	if stateDir == "" {
		stateDir = DefaultStateDir
	}

	s := &OS{StateDir: stateDir}

	err := s.init(createDir)
	if err != nil {
		return nil, err
	}

	return s, nil
}

func (s *OS) init(createDir bool) error {
	// If we are not creating the directory, ensure it still exists.
	if !createDir {
		_, err := os.Stat(s.StateDir)
		if err != nil {
			return fmt.Errorf("Unable to get state dir information: %w", err)
		}

		return nil
	}

	err := os.MkdirAll(s.StateDir, 0711)
	if err != nil {
		return fmt.Errorf("Failed to init dir %q: %w", s.StateDir, err)
	}

	return nil
}

// ControlSocketPath returns the path of the unix socket, honouring the GAUSSDB_SOCKET override.
func (s *OS) ControlSocketPath() string {
	path := os.Getenv(ControlSocket)
	if path != "" {
		return path
	}

	return filepath.Join(s.StateDir, "control.socket")
}

// ControlSocket returns the URL of the unix socket the daemon listens on.
func (s *OS) ControlSocket() api.URL {
	return *api.NewURL().Scheme("http").Host(s.ControlSocketPath())
}
