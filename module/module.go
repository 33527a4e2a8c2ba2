// Package module drives a Quectel EC21 modem, as fitted on the WioLTE board,
// over its AT command interface.
//
// A Module is not safe for concurrent use. Every operation blocks until the
// modem answered or the operation timed out, and records its outcome so that
// it can be read back with LastError.
package module

import (
	"io"
	"log"
	"time"
)

// Settings describes how to reach the modem.
type Settings struct {
	// SerialPort is the device name, e.g. /dev/ttyUSB2.
	SerialPort string
	BaudRate   int
	// Dialer overrides how the port is opened.
	// TarmDialer is used when nil.
	Dialer Dialer
	// TraceLogger, if set, logs all bytes exchanged with the modem.
	TraceLogger *log.Logger
	// Progress renders a bar on the output writer during long waits.
	Progress bool
}

// Module is the driver for one modem.
type Module struct {
	ch     Channel
	lines  ControlLines
	closer io.Closer

	delay    func(time.Duration)
	now      func() time.Time
	progress bool

	lastErr ErrorCode
}

// Option configures a Module.
type Option func(*Module)

// WithDelayFunc replaces time.Sleep for every pause between poll rounds
// and control line pulses.
func WithDelayFunc(fn func(time.Duration)) Option {
	return func(m *Module) {
		m.delay = fn
	}
}

// WithClock replaces time.Now for measuring elapsed time.
func WithClock(now func() time.Time) Option {
	return func(m *Module) {
		m.now = now
	}
}

// WithProgress enables wait bars on the output writer.
func WithProgress(enabled bool) Option {
	return func(m *Module) {
		m.progress = enabled
	}
}

// WithBlockedWaitFunc registers fn to run while a read waits for the modem.
func WithBlockedWaitFunc(fn func()) Option {
	return func(m *Module) {
		m.ch.OnBlockedWait(fn)
	}
}

// New returns a Module talking over ch.
// lines may be nil if no control line is wired.
func New(ch Channel, lines ControlLines, opts ...Option) *Module {
	if lines == nil {
		lines = NoControlLines{}
	}
	m := &Module{
		ch:    ch,
		lines: lines,
		delay: time.Sleep,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Open dials the port described by settings and returns a Module for it.
// If the transport can drive control lines, they are used.
func Open(settings Settings, opts ...Option) (*Module, error) {
	d := settings.Dialer
	if d == nil {
		d = TarmDialer{PortName: settings.SerialPort, BaudRate: settings.BaudRate}
	}
	t, err := d.Dial()
	if err != nil {
		return nil, WithCode(Unknown, err)
	}
	var lines ControlLines = NoControlLines{}
	if l, ok := t.(ControlLines); ok {
		lines = l
	}

	var m *Module
	ch := NewChannel(t,
		WithTraceLogger(settings.TraceLogger),
		WithUnsolicitedHandler(func(line string) bool {
			return m.HandleUnsolicited(line)
		}),
	)
	m = New(ch, lines, append([]Option{WithProgress(settings.Progress)}, opts...)...)
	m.closer = t
	print("Opened", settings.SerialPort)
	return m, nil
}

// Close releases the transport, if the Module owns one.
func (m *Module) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}

// Channel gives access to the command channel, for the packages
// implementing services on top of the Module.
func (m *Module) Channel() Channel {
	return m.ch
}

// LastError returns the outcome of the most recent operation.
func (m *Module) LastError() ErrorCode {
	return m.lastErr
}

// Record stores the outcome of an operation and returns err unchanged.
// Every public operation ends with it.
func (m *Module) Record(err error) error {
	m.lastErr = CodeOf(err)
	if err != nil {
		printf("Operation failed (%s): %v\n", m.lastErr, err)
	}
	return err
}

// HandleUnsolicited is offered every line that arrives while nothing is
// waiting for it. Registration notifications are not acted upon, so it
// never consumes a line.
func (m *Module) HandleUnsolicited(line string) bool {
	return false
}
