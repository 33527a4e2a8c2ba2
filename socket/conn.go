package socket

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
)

const (
	// readPoll is how long one Read round waits for data before checking
	// whether the peer has closed the socket.
	readPoll = time.Second
	// maxReadSize is the most AT+QIRD returns at once.
	maxReadSize = 1500
)

// Conn implements net.Conn on a modem socket.
// Deadlines are measured with the host's clock.
type Conn struct {
	mgr     *Manager
	id      int
	network string
	remote  addr

	mu            sync.Mutex
	rbuf          []byte
	pending       []byte
	readDeadline  time.Time
	writeDeadline time.Time
	closed        bool
}

type addr struct {
	network string
	address string
}

func (a addr) Network() string { return a.network }
func (a addr) String() string  { return a.address }

// Dial connects to the address on the named network.
// Known networks are "tcp", "tcp4", "udp" and "udp4"; an empty network
// means "tcp". The address has the form "host:port", where host can be a
// name the modem resolves itself.
func Dial(m *module.Module, network, address string) (*Conn, error) {
	return DialContext(context.Background(), m, network, address)
}

// DialContext is like Dial, but fails early if ctx is already done.
// Once the modem has started connecting, ctx has no effect.
func DialContext(ctx context.Context, m *module.Module, network, address string) (*Conn, error) {
	var typ Type
	switch network {
	case "tcp", "tcp4", "":
		typ, network = TCP, "tcp"
	case "udp", "udp4":
		typ, network = UDP, "udp"
	default:
		return nil, fmt.Errorf(`unsupported network "%s"`, network)
	}
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("bad port in %q: %w", address, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mgr := NewManager(m)
	id, err := mgr.Open(host, port, typ)
	if err != nil {
		return nil, err
	}
	return &Conn{
		mgr:     mgr,
		id:      id,
		network: network,
		remote:  addr{network: network, address: address},
		rbuf:    make([]byte, maxReadSize),
	}, nil
}

// ID returns the modem's connection id of c.
func (c *Conn) ID() int {
	return c.id
}

// Read reads data from the connection.
// Read can be made to time out and return an error after a fixed
// time limit; see SetDeadline and SetReadDeadline.
// io.EOF is returned once the peer has closed the connection and all
// data has been read.
func (c *Conn) Read(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if len(b) == 0 {
		return 0, nil
	}
	for len(c.pending) == 0 {
		wait := readPoll
		if !c.readDeadline.IsZero() {
			left := time.Until(c.readDeadline)
			if left <= 0 {
				return 0, os.ErrDeadlineExceeded
			}
			if left < wait {
				wait = left
			}
		}
		n, err := c.mgr.ReceiveTimeout(c.id, c.rbuf, wait)
		if err != nil {
			return 0, err
		}
		if n > 0 {
			c.pending = c.rbuf[:n]
			break
		}
		open, err := c.isOpen()
		if err != nil {
			return 0, err
		}
		if !open {
			return 0, io.EOF
		}
	}
	n := copy(b, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *Conn) isOpen() (bool, error) {
	infos, err := c.mgr.States()
	if err != nil {
		return false, err
	}
	for _, info := range infos {
		if info.ID == c.id {
			return info.State != StateClosing, nil
		}
	}
	return false, nil
}

// Write writes data to the connection, in chunks of at most MaxSendSize
// bytes. Write can be made to time out and return an error after a fixed
// time limit; see SetDeadline and SetWriteDeadline.
func (c *Conn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	n := 0
	for n < len(b) {
		if !c.writeDeadline.IsZero() && !time.Now().Before(c.writeDeadline) {
			return n, os.ErrDeadlineExceeded
		}
		end := n + MaxSendSize
		if end > len(b) {
			end = len(b)
		}
		if err := c.mgr.Send(c.id, b[n:end]); err != nil {
			return n, err
		}
		n = end
	}
	return n, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return net.ErrClosed
	}
	c.closed = true
	return c.mgr.Close(c.id)
}

// LocalAddr returns the local network address.
// The modem does not report its own address, so only the network is known.
func (c *Conn) LocalAddr() net.Addr {
	return addr{network: c.network}
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.remote
}

// SetDeadline sets the read and write deadlines associated
// with the connection. It is equivalent to calling both
// SetReadDeadline and SetWriteDeadline.
//
// A zero value for t means I/O operations will not time out.
func (c *Conn) SetDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	c.writeDeadline = t
	return nil
}

// SetReadDeadline sets the deadline for future Read calls.
// A zero value for t means Read will not time out.
func (c *Conn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readDeadline = t
	return nil
}

// SetWriteDeadline sets the deadline for future Write calls.
// A zero value for t means Write will not time out.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writeDeadline = t
	return nil
}

var _ net.Conn = (*Conn)(nil)
