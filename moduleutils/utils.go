// Package moduleutils holds helpers for finding and recovering a modem
// outside of a module.Module session.
package moduleutils

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/warthog618/modem/at"
	"github.com/warthog618/modem/serial"
	"github.com/warthog618/modem/trace"

	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/output"
)

// ErrNoModem is returned by FindModem when no port answered.
var ErrNoModem = errors.New("no modem found")

// Identity is what a modem reports about itself.
type Identity struct {
	Port         string
	Manufacturer string
	Model        string
	Revision     string
}

// ListPorts returns the serial ports present on the host.
func ListPorts() ([]string, error) {
	return module.ListPorts()
}

// Probe asks the modem on rw to identify itself.
func Probe(rw io.ReadWriter, timeout time.Duration) (Identity, error) {
	modem := at.New(rw, at.WithTimeout(timeout))
	var id Identity
	for _, q := range []struct {
		cmd  string
		dest *string
	}{
		{"+GMI", &id.Manufacturer},
		{"+GMM", &id.Model},
		{"+GMR", &id.Revision},
	} {
		lines, err := modem.Command(q.cmd)
		if err != nil {
			return Identity{}, fmt.Errorf("AT%s: %w", q.cmd, err)
		}
		*q.dest = strings.TrimSpace(strings.Join(lines, " "))
	}
	return id, nil
}

// FindModem probes ports in order and returns the first one with a modem
// attached. If ports is empty every port on the host is tried.
func FindModem(ports []string, baud int, timeout time.Duration) (Identity, error) {
	if len(ports) == 0 {
		var err error
		if ports, err = ListPorts(); err != nil {
			return Identity{}, err
		}
	}
	if baud == 0 {
		baud = module.DefaultBaudRate
	}
	for _, port := range ports {
		p, err := serial.New(serial.WithPort(port), serial.WithBaud(baud))
		if err != nil {
			output.Printf("Skipping %s: %v\n", port, err)
			continue
		}
		id, err := Probe(p, timeout)
		p.Close()
		if err != nil {
			output.Printf("No modem on %s: %v\n", port, err)
			continue
		}
		id.Port = port
		output.Printf("Found %s %s on %s\n", id.Manufacturer, id.Model, port)
		return id, nil
	}
	return Identity{}, ErrNoModem
}

// PowerOff issues AT+QPOWD=1 to the modem
// and returns any error encountered while issuing the command.
func PowerOff(modem *at.AT) error {
	_, err := modem.Command(`+QPOWD=1`)
	return err
}

// Restart issues a full functionality reset (AT+CFUN=1,1) to the modem
// and waits for some time, then pokes the modem to see if it has come back.
//
// If the modem does not respond after multiple pokes, error is returned.
func Restart(dev string) error {
	{
		p, err := serial.New(serial.WithPort(dev), serial.WithBaud(module.DefaultBaudRate))
		if err != nil {
			return err
		}
		modem := at.New(p, at.WithTimeout(1000*time.Millisecond))
		modem.Command(`+CFUN=1,1`)
		p.Close()
		output.Countdown(15, time.Second)
	}

	p, err := serial.New(serial.WithPort(dev), serial.WithBaud(module.DefaultBaudRate))
	if err != nil {
		return err
	}
	defer p.Close()
	return poke(at.New(trace.New(p, trace.WithLogger(log.Default())), at.WithTimeout(500*time.Millisecond)), 50, 200*time.Millisecond)
}

func poke(modem *at.AT, tries int, interval time.Duration) error {
	for i := tries; i > 0; i-- {
		output.Println("Poke")
		_, err := modem.Command("")
		if err == nil {
			output.Println("Modem responded")
			return nil
		}
		time.Sleep(interval)
	}
	return errors.New("modem did not respond after restart")
}
