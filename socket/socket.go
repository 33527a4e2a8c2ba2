// Package socket implements TCP and UDP client sockets on top of the
// modem's built-in TCP/IP stack. Up to MaxConnections sockets can be open
// at the same time, each identified by its connection id.
package socket

import (
	"errors"
	"fmt"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

const (
	// MaxConnections is the number of connection ids the modem provides.
	MaxConnections = 12
	// MaxSendSize is the largest payload accepted by one Send.
	MaxSendSize = 1460
)

const (
	stateTimeout   = 10 * time.Second
	openTimeout    = 150 * time.Second
	sendOKTimeout  = 5 * time.Second
	replyTimeout   = 500 * time.Millisecond
	closeTimeout   = 10 * time.Second
	binaryTimeout  = 500 * time.Millisecond
	promptPattern  = "^>"
	sendOKPattern  = "^SEND OK$"
	statePattern   = `^(OK|\+QISTATE: .*)$`
	receivePattern = `^\+QIRD: (.*)$`
)

var (
	// ErrNoFreeConnection is returned by Open when every connection id is in use.
	ErrNoFreeConnection = errors.New("no free connection id")
	// ErrTooLarge is returned by Send for payloads over MaxSendSize.
	ErrTooLarge = errors.New("payload too large")
	// ErrBadArgument is returned for an invalid host, port, socket type or
	// connection id.
	ErrBadArgument = errors.New("bad argument")
)

// Manager opens and operates sockets on a Module.
type Manager struct {
	m  *module.Module
	ch module.Channel
}

// NewManager returns a Manager using m.
func NewManager(m *module.Module) *Manager {
	return &Manager{m: m, ch: m.Channel()}
}

// Open connects a new socket to host:port and returns its connection id.
// The lowest connection id not currently in use is chosen.
func (s *Manager) Open(host string, port int, typ Type) (int, error) {
	id, err := s.open(host, port, typ)
	return id, s.m.Record(err)
}

func (s *Manager) open(host string, port int, typ Type) (int, error) {
	if host == "" {
		return -1, module.Errorf(module.Unknown, "empty host: %w", ErrBadArgument)
	}
	if port < 0 || port > 65535 {
		return -1, module.Errorf(module.Unknown, "port %d: %w", port, ErrBadArgument)
	}
	if typ != TCP && typ != UDP {
		return -1, module.Errorf(module.Unknown, "%v: %w", typ, ErrBadArgument)
	}

	infos, err := s.states()
	if err != nil {
		return -1, err
	}
	var used [MaxConnections]bool
	for _, info := range infos {
		used[info.ID] = true
	}
	id := -1
	for i := range used {
		if !used[i] {
			id = i
			break
		}
	}
	if id < 0 {
		return -1, module.WithCode(module.Unknown, ErrNoFreeConnection)
	}

	cmd := fmt.Sprintf(`AT+QIOPEN=1,%d,"%s","%s",%d`, id, typ, host, port)
	if _, err := s.ch.SendAndAwait(cmd, "^OK$", openTimeout); err != nil {
		return -1, module.Errorf(module.Unknown, "open socket %d: %w", id, err)
	}
	if _, err := s.ch.Await(fmt.Sprintf(`^\+QIOPEN: %d,0$`, id), openTimeout); err != nil {
		return -1, module.Errorf(module.Unknown, "connect socket %d: %w", id, err)
	}
	output.Printf("Socket %d connected to %s:%d (%v)\n", id, host, port, typ)
	return id, nil
}

// States lists the sockets currently known to the modem.
func (s *Manager) States() ([]Info, error) {
	infos, err := s.states()
	return infos, s.m.Record(err)
}

func (s *Manager) states() ([]Info, error) {
	if err := s.ch.Send("AT+QISTATE?"); err != nil {
		return nil, module.WithCode(module.Unknown, err)
	}
	var infos []Info
	for {
		resp, err := s.ch.Await(statePattern, stateTimeout)
		if err != nil {
			return nil, module.Errorf(module.Unknown, "query socket states: %w", err)
		}
		if resp == "OK" {
			return infos, nil
		}
		info, err := parseQISTATE(resp)
		if err != nil {
			return nil, module.WithCode(module.Unknown, err)
		}
		infos = append(infos, info)
	}
}

// Send writes data to socket id. At most MaxSendSize bytes can be sent
// at once.
func (s *Manager) Send(id int, data []byte) error {
	return s.m.Record(s.send(id, data))
}

func (s *Manager) send(id int, data []byte) error {
	if err := checkID(id); err != nil {
		return err
	}
	if len(data) > MaxSendSize {
		return module.Errorf(module.Unknown, "%d bytes: %w", len(data), ErrTooLarge)
	}
	if _, err := s.ch.SendAndAwait(fmt.Sprintf("AT+QISEND=%d,%d", id, len(data)), promptPattern, replyTimeout); err != nil {
		return module.Errorf(module.Unknown, "socket %d not ready to send: %w", id, err)
	}
	if err := s.ch.WriteBinary(data); err != nil {
		return module.WithCode(module.Unknown, err)
	}
	if _, err := s.ch.Await(sendOKPattern, sendOKTimeout); err != nil {
		return module.Errorf(module.Unknown, "socket %d send failed: %w", id, err)
	}
	return nil
}

// Receive copies data waiting on socket id into buf and returns the byte
// count, which is 0 if nothing has arrived.
// If more bytes are waiting than buf can hold nothing is read and
// module.ErrBufferTooSmall is returned.
func (s *Manager) Receive(id int, buf []byte) (int, error) {
	n, err := s.receive(id, buf)
	return n, s.m.Record(err)
}

func (s *Manager) receive(id int, buf []byte) (int, error) {
	if err := checkID(id); err != nil {
		return 0, err
	}
	resp, err := s.ch.SendAndAwait(fmt.Sprintf("AT+QIRD=%d", id), receivePattern, replyTimeout)
	if err != nil {
		return 0, module.Errorf(module.Unknown, "read socket %d: %w", id, err)
	}
	n, err := parseQIRD(resp)
	if err != nil {
		return 0, module.WithCode(module.Unknown, err)
	}
	if n > len(buf) {
		return 0, module.Errorf(module.Unknown, "%d bytes waiting on socket %d: %w", n, id, module.ErrBufferTooSmall)
	}
	if n > 0 {
		data, err := s.ch.ReadBinary(n, binaryTimeout)
		if err != nil {
			return 0, module.Errorf(module.Unknown, "read socket %d: %w", id, err)
		}
		copy(buf, data)
	}
	if _, err := s.ch.Await("^OK$", replyTimeout); err != nil {
		return 0, module.Errorf(module.Unknown, "read socket %d: %w", id, err)
	}
	return n, nil
}

// ReceiveTimeout polls socket id until data arrives or timeout elapses.
// Running out of time is not an error; 0 is returned.
func (s *Manager) ReceiveTimeout(id int, buf []byte, timeout time.Duration) (int, error) {
	n, err := s.receiveTimeout(id, buf, timeout)
	return n, s.m.Record(err)
}

func (s *Manager) receiveTimeout(id int, buf []byte, timeout time.Duration) (int, error) {
	var n int
	err := s.m.Poll(timeout, func() (bool, error) {
		var err error
		n, err = s.receive(id, buf)
		return n > 0, err
	})
	if errors.Is(err, module.ErrPollTimeout) {
		return 0, nil
	}
	return n, err
}

// Close closes socket id.
func (s *Manager) Close(id int) error {
	return s.m.Record(s.close(id))
}

func (s *Manager) close(id int) error {
	if err := checkID(id); err != nil {
		return err
	}
	if _, err := s.ch.SendAndAwait(fmt.Sprintf("AT+QICLOSE=%d", id), "^OK$", closeTimeout); err != nil {
		return module.Errorf(module.Unknown, "close socket %d: %w", id, err)
	}
	output.Printf("Socket %d closed\n", id)
	return nil
}

func checkID(id int) error {
	if id < 0 || id >= MaxConnections {
		return module.Errorf(module.Unknown, "connection id %d: %w", id, ErrBadArgument)
	}
	return nil
}
