package utils

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"github.com/canonical/lxd/shared/validate"
)

// ValidateFQDN validates that the given name is a valid fully qualified domain name.
func ValidateFQDN(name string) error {
	// Validate length
	if len(name) < 1 || len(name) > 255 {
		return fmt.Errorf("Name must be 1-255 characters long")
	}

	hostnames := strings.Split(name, ".")
	for _, h := range hostnames {
		err := validate.IsHostname(h)
		if err != nil {
			return err
		}
	}

	return nil
}

// ValidateHost checks a database host, which may be an IP address, a domain name or the directory of a unix socket.
func ValidateHost(host string) error {
	if net.ParseIP(host) != nil || filepath.IsAbs(host) {
		return nil
	}

	err := ValidateFQDN(host)
	if err != nil {
		return fmt.Errorf("Invalid host %q: %w", host, err)
	}

	return nil
}
