package socket

import "fmt"

// Type selects the transport protocol of a socket.
type Type int

const (
	TCP Type = iota
	UDP
)

func (t Type) String() string {
	switch t {
	case TCP:
		return "TCP"
	case UDP:
		return "UDP"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// State represents socket state that can be queried by AT+QISTATE
type State int8

// Possible states defined in the Quectel EC2x TCP/IP AT Commands Manual
const (
	StateInitial State = iota
	StateOpening
	StateConnected
	StateListening
	StateClosing
	StateUnknown
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateOpening:
		return "opening"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Info describes one socket the modem has bound.
type Info struct {
	ID         int
	Service    string
	RemoteIP   string
	RemotePort int
	LocalPort  int
	State      State
}
