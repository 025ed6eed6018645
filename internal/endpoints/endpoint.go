package endpoints

// Listener is one way of reaching the daemon's API.
type Listener interface {
	Listen() error
	Serve()
	Close() error
	Kind() Kind

	// Address is where the listener accepts connections, empty until Listen succeeds.
	Address() string
}

// Kind identifies a listener. The daemon runs at most one listener of each kind.
type Kind int

const (
	// KindControl is the unix control socket, trusted by every client that can open it.
	KindControl Kind = iota

	// KindNetwork is the plain HTTP listener on a TCP address.
	KindNetwork
)

// kinds is the order listeners are started in.
var kinds = []Kind{KindControl, KindNetwork}

// String labels listener kinds for logging purposes.
func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control socket"
	case KindNetwork:
		return "http listener"
	default:
		return ""
	}
}
