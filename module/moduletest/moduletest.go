// Package moduletest provides a scripted in-memory modem for testing code
// built on package module without hardware.
//
// Time is simulated: reads on an idle Modem and every delay of the Module
// advance a Clock instead of sleeping, so timeouts expire instantly and
// deterministically.
package moduletest

import (
	"bytes"
	"strings"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
)

// ReadTick is how far the clock advances for each read on an idle Modem.
const ReadTick = 50 * time.Millisecond

// Clock is a manually advanced clock.
type Clock struct {
	t time.Time
}

// NewClock returns a clock set to an arbitrary fixed instant.
func NewClock() *Clock {
	return &Clock{t: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	return c.t
}

// Sleep advances the clock by d.
func (c *Clock) Sleep(d time.Duration) {
	c.t = c.t.Add(d)
}

type step struct {
	expect string
	reply  string
	repeat bool
}

// Modem plays back scripted replies. Each step waits for a given byte
// sequence to be written and then queues its reply for reading.
// Steps are matched in order.
type Modem struct {
	Clock *Clock

	steps   []step
	pos     int
	mark    int
	written bytes.Buffer
	rx      []byte
	closed  bool
}

// NewModem returns an empty script driven by clock.
func NewModem(clock *Clock) *Modem {
	return &Modem{Clock: clock}
}

// Lines formats reply lines the way the modem frames them.
func Lines(lines ...string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString("\r\n" + l + "\r\n")
	}
	return b.String()
}

// Expect adds a step answering the command line cmd with reply.
func (m *Modem) Expect(cmd string, reply ...string) *Modem {
	return m.ExpectData(cmd+"\r", reply...)
}

// ExpectData adds a step answering raw written data with reply.
func (m *Modem) ExpectData(data string, reply ...string) *Modem {
	m.steps = append(m.steps, step{expect: data, reply: strings.Join(reply, "")})
	return m
}

// ExpectAlways adds a step answering every further cmd with reply.
// Steps after it are never reached.
func (m *Modem) ExpectAlways(cmd string, reply ...string) *Modem {
	m.steps = append(m.steps, step{expect: cmd + "\r", reply: strings.Join(reply, ""), repeat: true})
	return m
}

// Feed queues unsolicited output.
func (m *Modem) Feed(s string) {
	m.rx = append(m.rx, s...)
}

// Written returns everything written so far.
func (m *Modem) Written() string {
	return m.written.String()
}

// Remaining is the number of steps not matched yet.
func (m *Modem) Remaining() int {
	n := len(m.steps) - m.pos
	if n > 0 && m.steps[m.pos].repeat {
		n--
	}
	return n
}

// Unread is the number of queued bytes not read yet.
func (m *Modem) Unread() int {
	return len(m.rx)
}

// Closed reports whether Close was called.
func (m *Modem) Closed() bool {
	return m.closed
}

func (m *Modem) Read(p []byte) (int, error) {
	if len(m.rx) == 0 {
		m.Clock.Sleep(ReadTick)
		return 0, nil
	}
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

func (m *Modem) Write(p []byte) (int, error) {
	m.written.Write(p)
	for m.pos < len(m.steps) {
		s := m.steps[m.pos]
		i := bytes.Index(m.written.Bytes()[m.mark:], []byte(s.expect))
		if i < 0 {
			break
		}
		m.mark += i + len(s.expect)
		m.rx = append(m.rx, s.reply...)
		if !s.repeat {
			m.pos++
		}
	}
	return len(p), nil
}

func (m *Modem) Close() error {
	m.closed = true
	return nil
}

// New returns a Module wired to a fresh Modem and Clock.
// lines may be nil.
func New(lines module.ControlLines, opts ...module.Option) (*module.Module, *Modem) {
	clock := NewClock()
	modem := NewModem(clock)
	ch := module.NewChannel(modem, module.WithChannelClock(clock.Now))
	opts = append([]module.Option{
		module.WithClock(clock.Now),
		module.WithDelayFunc(clock.Sleep),
	}, opts...)
	return module.New(ch, lines, opts...), modem
}
