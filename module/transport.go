package module

import (
	"fmt"
	"io"
	"time"

	tarm "github.com/tarm/serial"
	bugst "go.bug.st/serial"
)

// DefaultBaudRate is the EC21 UART rate after power on.
const DefaultBaudRate = 115200

// readTimeout bounds every read on the port so that deadlines and the
// blocked-wait hook are serviced while the modem is silent.
const readTimeout = 50 * time.Millisecond

// Transport is the byte stream to the modem.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport.
type Dialer interface {
	Dial() (Transport, error)
}

// TarmDialer opens the port with github.com/tarm/serial.
// It has no access to the control lines.
type TarmDialer struct {
	PortName string
	BaudRate int
}

// Dial opens the configured serial port.
func (d TarmDialer) Dial() (Transport, error) {
	c := tarm.Config{
		Name:        d.PortName,
		Baud:        baudOrDefault(d.BaudRate),
		Size:        8,
		Parity:      tarm.ParityNone,
		StopBits:    tarm.Stop1,
		ReadTimeout: readTimeout,
	}
	p, err := tarm.OpenPort(&c)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", d.PortName, err)
	}
	return p, nil
}

// SerialDialer opens the port with go.bug.st/serial.
// The returned Transport also implements ControlLines:
// DTR drives the sleep input and RTS drives the power key,
// or the reset input when ResetOnRTS is set.
type SerialDialer struct {
	PortName   string
	BaudRate   int
	ResetOnRTS bool
}

// Dial opens the configured serial port.
func (d SerialDialer) Dial() (Transport, error) {
	mode := &bugst.Mode{
		BaudRate: baudOrDefault(d.BaudRate),
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", d.PortName, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", d.PortName, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", d.PortName, err)
	}
	return &linePort{Port: p, resetOnRTS: d.ResetOnRTS}, nil
}

type linePort struct {
	bugst.Port
	resetOnRTS bool
}

func (p *linePort) SetPowerKey(high bool) error {
	if p.resetOnRTS {
		return ErrLineNotWired
	}
	return p.SetRTS(high)
}

func (p *linePort) SetReset(high bool) error {
	if !p.resetOnRTS {
		return ErrLineNotWired
	}
	return p.SetRTS(high)
}

func (p *linePort) SetSleep(high bool) error {
	return p.SetDTR(high)
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}

func baudOrDefault(b int) int {
	if b <= 0 {
		return DefaultBaudRate
	}
	return b
}
