// Package extensions tracks the optional API capabilities a daemon advertises.
package extensions

import (
	"fmt"
	"regexp"

	"github.com/canonical/lxd/shared"
)

var extensionRegex = regexp.MustCompile(`^[a-z0-9]+(_[a-z0-9]+)*$`)

// Extensions represents a registry of API extensions, in the order they were added.
// Clients check for an extension before relying on the behaviour it names.
type Extensions []string

// apiExtensions lists every extension this daemon supports. New extensions are only ever appended.
var apiExtensions = Extensions{
	"tools",
	"tool_definitions",
	"api_token",
	"daemon_shutdown",
}

// validateExtension checks that the extension is lowercase letters, digits and single underscores.
func validateExtension(extension string) error {
	if extension == "" {
		return fmt.Errorf("Extension cannot be empty")
	}

	if !extensionRegex.MatchString(extension) {
		return fmt.Errorf("Extension name %q is invalid: Extension name must contain only lowercase letters, digits and underscores, and must not begin or end with an underscore", extension)
	}

	return nil
}

// APIExtensions returns the registry of extensions supported by this daemon.
func APIExtensions() (Extensions, error) {
	return NewExtensionRegistryFromList(apiExtensions)
}

// NewExtensionRegistryFromList creates a registry from a list of extensions, typically read from an API response.
func NewExtensionRegistryFromList(extensions []string) (Extensions, error) {
	registry := make(Extensions, 0, len(extensions))
	err := registry.Register(extensions)
	if err != nil {
		return nil, err
	}

	return registry, nil
}

// Register adds new extensions to the registry.
func (e *Extensions) Register(newExtensions []string) error {
	for _, extension := range newExtensions {
		if shared.ValueInSlice(extension, *e) {
			return fmt.Errorf("Extension %q already registered", extension)
		}

		err := validateExtension(extension)
		if err != nil {
			return err
		}

		*e = append(*e, extension)
	}

	return nil
}

// HasExtension reports whether the extension set supports the given extension.
func (e Extensions) HasExtension(ext string) bool {
	return shared.ValueInSlice(ext, e)
}

// Version returns the number of extensions in the set, representing its version number.
func (e Extensions) Version() int {
	return len(e)
}
