package module

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/warthog618/modem/trace"
)

//go:generate mockgen -destination=mock_module.go -package=module . Channel,ControlLines

// Channel is the command/response link to the modem.
//
// Patterns are regular expressions matched against whole reply lines.
// When a pattern has a capture group the first group is returned,
// otherwise the whole line is. Lines that do not match are skipped.
type Channel interface {
	// Send writes a command line. No reply is read.
	Send(cmd string) error
	// SendAndAwait writes a command line and waits for a reply line matching pattern.
	SendAndAwait(cmd, pattern string, timeout time.Duration) (string, error)
	// Await waits for a reply line matching pattern.
	Await(pattern string, timeout time.Duration) (string, error)
	// WriteBinary writes raw bytes, outside of line framing.
	WriteBinary(b []byte) error
	// ReadBinary reads exactly n raw bytes.
	ReadBinary(n int, timeout time.Duration) ([]byte, error)
	// ReadBody reads raw bytes until the final OK of a data transfer.
	// The OK itself is consumed and not returned.
	ReadBody(capacity int, timeout time.Duration) ([]byte, error)
	// OnBlockedWait registers fn to be called whenever a read is waiting for data.
	OnBlockedWait(fn func())
}

const (
	crlf     = "\r\n"
	bodyEnd  = "\r\nOK\r\n"
	readSize = 256
)

// ChannelOption configures a channel created by NewChannel.
type ChannelOption func(*serialChannel)

// WithTraceLogger logs all traffic on the channel to l.
func WithTraceLogger(l *log.Logger) ChannelOption {
	return func(c *serialChannel) {
		if l != nil {
			c.rw = trace.New(c.rw, trace.WithLogger(l))
		}
	}
}

// WithChannelClock replaces the clock used for read deadlines.
func WithChannelClock(now func() time.Time) ChannelOption {
	return func(c *serialChannel) {
		c.now = now
	}
}

// WithUnsolicitedHandler registers fn for lines that did not match the
// pattern being waited for. fn reports whether it consumed the line.
func WithUnsolicitedHandler(fn func(line string) bool) ChannelOption {
	return func(c *serialChannel) {
		c.unsolicited = fn
	}
}

type serialChannel struct {
	rw          io.ReadWriter
	pending     []byte
	blocked     func()
	unsolicited func(line string) bool
	now         func() time.Time

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewChannel returns a Channel over rw.
//
// Reads on rw must return after a short time when no data is available,
// as serial ports opened with a read timeout do; deadlines are only
// checked between reads.
func NewChannel(rw io.ReadWriter, opts ...ChannelOption) Channel {
	c := &serialChannel{
		rw:       rw,
		now:      time.Now,
		patterns: make(map[string]*regexp.Regexp),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *serialChannel) Send(cmd string) error {
	if _, err := io.WriteString(c.rw, cmd+"\r"); err != nil {
		return fmt.Errorf("failed to write %q: %w", cmd, err)
	}
	return nil
}

func (c *serialChannel) SendAndAwait(cmd, pattern string, timeout time.Duration) (string, error) {
	if err := c.Send(cmd); err != nil {
		return "", err
	}
	return c.Await(pattern, timeout)
}

func (c *serialChannel) Await(pattern string, timeout time.Duration) (string, error) {
	re, err := c.compile(pattern)
	if err != nil {
		return "", err
	}
	deadline := c.now().Add(timeout)
	for {
		line, err := c.readLine(deadline)
		if err != nil {
			return "", fmt.Errorf("awaiting %q: %w", pattern, err)
		}
		m := re.FindStringSubmatch(line)
		if m == nil {
			if c.unsolicited == nil || !c.unsolicited(line) {
				printf("Skipping %q while awaiting %q\n", line, pattern)
			}
			continue
		}
		if len(m) > 1 {
			return m[1], nil
		}
		return m[0], nil
	}
}

func (c *serialChannel) WriteBinary(b []byte) error {
	if _, err := c.rw.Write(b); err != nil {
		return fmt.Errorf("failed to write %d bytes: %w", len(b), err)
	}
	return nil
}

func (c *serialChannel) ReadBinary(n int, timeout time.Duration) ([]byte, error) {
	deadline := c.now().Add(timeout)
	for len(c.pending) < n {
		if err := c.fill(deadline); err != nil {
			return nil, fmt.Errorf("read %d of %d bytes: %w", len(c.pending), n, err)
		}
	}
	b := make([]byte, n)
	copy(b, c.pending)
	c.pending = c.pending[n:]
	return b, nil
}

func (c *serialChannel) ReadBody(capacity int, timeout time.Duration) ([]byte, error) {
	deadline := c.now().Add(timeout)
	for {
		if i := bytes.Index(c.pending, []byte(bodyEnd)); i >= 0 {
			if i > capacity {
				return nil, ErrBufferTooSmall
			}
			b := make([]byte, i)
			copy(b, c.pending)
			c.pending = c.pending[i+len(bodyEnd):]
			return b, nil
		}
		if len(c.pending) > capacity+len(bodyEnd) {
			return nil, ErrBufferTooSmall
		}
		if err := c.fill(deadline); err != nil {
			return nil, err
		}
	}
}

func (c *serialChannel) OnBlockedWait(fn func()) {
	c.blocked = fn
}

func (c *serialChannel) compile(pattern string) (*regexp.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad reply pattern %q: %w", pattern, err)
	}
	c.patterns[pattern] = re
	return re, nil
}

// readLine returns the next non-empty line. A data prompt ("> ") is
// returned as a line of its own since the modem does not terminate it.
func (c *serialChannel) readLine(deadline time.Time) (string, error) {
	for {
		if i := bytes.Index(c.pending, []byte(crlf)); i >= 0 {
			line := string(c.pending[:i])
			c.pending = c.pending[i+len(crlf):]
			if line == "" {
				continue
			}
			return line, nil
		}
		if len(c.pending) > 0 && c.pending[0] == '>' {
			n := 1
			if len(c.pending) > 1 && c.pending[1] == ' ' {
				n = 2
			}
			line := string(c.pending[:n])
			c.pending = c.pending[n:]
			return line, nil
		}
		if err := c.fill(deadline); err != nil {
			return "", err
		}
	}
}

func (c *serialChannel) fill(deadline time.Time) error {
	if !c.now().Before(deadline) {
		return ErrTimeout
	}
	buf := make([]byte, readSize)
	n, err := c.rw.Read(buf)
	if n > 0 {
		c.pending = append(c.pending, buf[:n]...)
		return nil
	}
	if err != nil && err != io.EOF {
		return err
	}
	if c.blocked != nil {
		c.blocked()
	}
	return nil
}
