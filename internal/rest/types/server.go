package types

// Server represents server status information.
type Server struct {
	Name     string `json:"name"     yaml:"name"`
	Version  string `json:"version"  yaml:"version"`
	Database string `json:"database" yaml:"database"`
	Address  string `json:"address"  yaml:"address"`
	Tools    int    `json:"tools"    yaml:"tools"`

	APIExtensions []string `json:"api_extensions" yaml:"api_extensions"`
}
