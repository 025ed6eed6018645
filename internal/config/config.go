package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"gopkg.in/yaml.v3"

	"github.com/gaussdb/gaussdb-mcp/internal/sys"
	"github.com/gaussdb/gaussdb-mcp/internal/utils"
)

// Config holds the connection settings. It is built once at startup and only read afterwards.
type Config struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"-" yaml:"password"`
	Database string `json:"database" yaml:"database"`

	// AdminDatabase is connected to when creating databases.
	AdminDatabase string `json:"admin_database" yaml:"admin_database"`

	SSLMode string `json:"sslmode" yaml:"sslmode"`

	// ConnectTimeout in seconds, enforced by the driver. Zero disables it.
	ConnectTimeout int `json:"connect_timeout" yaml:"connect_timeout"`

	LogFile string `json:"log_file" yaml:"log_file"`

	// APIToken, when set, must be presented as a bearer token by network clients of the HTTP API.
	APIToken string `json:"-" yaml:"api_token,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          8000,
		User:          "root",
		Password:      "password",
		Database:      "postgres",
		AdminDatabase: "postgres",
		SSLMode:       "disable",
		LogFile:       "mcp.log",
	}
}

// Load builds the configuration from the defaults, then the YAML file at path (if any), then the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(sys.ConfigFile)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("Failed to load config: %w", err)
		}

		err = yaml.Unmarshal(data, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("Failed to parse config from yaml: %w", err)
		}
	}

	err := cfg.applyEnv(os.LookupEnv)
	if err != nil {
		return Config{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("Invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		sys.Host:          &c.Host,
		sys.User:          &c.User,
		sys.Password:      &c.Password,
		sys.Database:      &c.Database,
		sys.AdminDatabase: &c.AdminDatabase,
		sys.SSLMode:       &c.SSLMode,
		sys.LogFile:       &c.LogFile,
		sys.APIToken:      &c.APIToken,
	}

	for key, field := range strs {
		value, ok := lookup(key)
		if ok {
			*field = value
		}
	}

	ints := map[string]*int{
		sys.Port:           &c.Port,
		sys.ConnectTimeout: &c.ConnectTimeout,
	}

	for key, field := range ints {
		value, ok := lookup(key)
		if !ok || value == "" {
			continue
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("Invalid value %q for %s: %w", value, key, err)
		}

		*field = n
	}

	return nil
}

// Validate checks the configuration for values the driver cannot use.
func (c Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("Host cannot be empty")
	}

	err := utils.ValidateHost(c.Host)
	if err != nil {
		return err
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("Port %d is out of range", c.Port)
	}

	if c.Database == "" {
		return fmt.Errorf("Database cannot be empty")
	}

	if c.AdminDatabase == "" {
		return fmt.Errorf("Admin database cannot be empty")
	}

	if c.ConnectTimeout < 0 {
		return fmt.Errorf("Connect timeout cannot be negative")
	}

	return nil
}

// Address returns the host:port pair of the server.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DSN returns a lib/pq connection string for the named database.
func (c Config) DSN(database string) string {
	params := [][2]string{
		{"host", c.Host},
		{"port", strconv.Itoa(c.Port)},
		{"user", c.User},
		{"password", c.Password},
		{"dbname", database},
	}

	if c.SSLMode != "" {
		params = append(params, [2]string{"sslmode", c.SSLMode})
	}

	if c.ConnectTimeout > 0 {
		params = append(params, [2]string{"connect_timeout", strconv.Itoa(c.ConnectTimeout)})
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		parts = append(parts, p[0]+"="+quoteDSNValue(p[1]))
	}

	return strings.Join(parts, " ")
}

// quoteDSNValue single-quotes a value, escaping backslashes and quotes as libpq expects.
func quoteDSNValue(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `'`, `\'`)

	return "'" + value + "'"
}

// Write stores the configuration as YAML at path, atomically replacing any existing file.
func (c Config) Write(path string) error {
	bytes, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("Failed to parse config to yaml: %w", err)
	}

	err = renameio.WriteFile(path, bytes, 0600)
	if err != nil {
		return fmt.Errorf("Failed to write config yaml: %w", err)
	}

	return nil
}
