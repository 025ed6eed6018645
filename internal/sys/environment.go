package sys

const (
	// Host is the database server host name or address.
	Host = "GAUSSDB_HOST"

	// Port is the database server port.
	Port = "GAUSSDB_PORT"

	// User is the role used to connect.
	User = "GAUSSDB_USER"

	// Password is the password of User.
	Password = "GAUSSDB_PASSWORD"

	// Database is the database every operation except create-database runs against.
	Database = "GAUSSDB_DATABASE"

	// AdminDatabase is the database used to run CREATE DATABASE.
	AdminDatabase = "GAUSSDB_ADMIN_DATABASE"

	// SSLMode is passed to the driver as sslmode.
	SSLMode = "GAUSSDB_SSLMODE"

	// ConnectTimeout is the connection timeout in seconds handed to the driver. Zero waits indefinitely.
	ConnectTimeout = "GAUSSDB_CONNECT_TIMEOUT"

	// LogFile is the path of the log file.
	LogFile = "GAUSSDB_MCP_LOG"

	// ConfigFile is the path of an optional YAML configuration file.
	ConfigFile = "GAUSSDB_CONFIG"

	// APIToken is the bearer token network clients of the HTTP API must present.
	APIToken = "GAUSSDB_API_TOKEN"

	// StateDir is the directory holding the control socket.
	StateDir = "GAUSSDB_STATE_DIR"

	// ControlSocket is the path of the daemon's unix socket.
	ControlSocket = "GAUSSDB_SOCKET"
)
