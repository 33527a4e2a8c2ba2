package module

import (
	"errors"
	"fmt"
	"time"
)

const (
	probeTimeout      = 500 * time.Millisecond
	responsiveTimeout = 2 * time.Second
	bootProbeTimeout  = 10 * time.Second
	simReadyTimeout   = 10 * time.Second
	powerDownTimeout  = 60 * time.Second
	readyPollTimeout  = 100 * time.Millisecond
)

// IsResponsive probes the modem with "AT" for up to two seconds.
func (m *Module) IsResponsive() bool {
	return m.probe(responsiveTimeout) == nil
}

func (m *Module) probe(timeout time.Duration) error {
	start := m.now()
	for {
		if _, err := m.ch.SendAndAwait("AT", "^OK$", probeTimeout); err == nil {
			return nil
		}
		if m.since(start) >= timeout {
			return ErrTimeout
		}
	}
}

// Reset pulses the reset input and waits for the modem to report RDY.
func (m *Module) Reset(timeout time.Duration) error {
	return m.Record(m.reset(timeout))
}

func (m *Module) reset(timeout time.Duration) error {
	err := m.lines.SetReset(false)
	if errors.Is(err, ErrLineNotWired) {
		return m.softReset(timeout)
	}
	if err != nil {
		return WithCode(Unknown, fmt.Errorf("reset low: %w", err))
	}
	m.Delay(200 * time.Millisecond)
	if err := m.lines.SetReset(true); err != nil {
		return WithCode(Unknown, fmt.Errorf("reset high: %w", err))
	}
	m.Delay(300 * time.Millisecond)

	return m.awaitReady(timeout)
}

// softReset restarts the modem with AT+CFUN=1,1 when the reset input
// is not wired to the host.
func (m *Module) softReset(timeout time.Duration) error {
	print("Reset line not wired, restarting with AT+CFUN=1,1")
	if _, err := m.ch.SendAndAwait("AT+CFUN=1,1", "^OK$", 10*time.Second); err != nil {
		return WithCode(Unknown, fmt.Errorf("software reset: %w", err))
	}
	return m.awaitReady(timeout)
}

// PowerOn pulses the power key and waits for the modem to report RDY.
func (m *Module) PowerOn(timeout time.Duration) error {
	return m.Record(m.powerOn(timeout))
}

func (m *Module) powerOn(timeout time.Duration) error {
	m.Delay(100 * time.Millisecond)
	if err := m.lines.SetPowerKey(true); err != nil {
		return WithCode(Unknown, fmt.Errorf("power key high: %w", err))
	}
	m.Delay(200 * time.Millisecond)
	if err := m.lines.SetPowerKey(false); err != nil {
		return WithCode(Unknown, fmt.Errorf("power key low: %w", err))
	}

	return m.awaitReady(timeout)
}

func (m *Module) awaitReady(timeout time.Duration) error {
	start := m.now()
	for {
		if _, err := m.ch.Await("^RDY$", readyPollTimeout); err == nil {
			print("Modem is ready")
			return nil
		}
		if m.since(start) >= timeout {
			return Errorf(Timeout, "no RDY within %v", timeout)
		}
	}
}

// BringUp starts the modem and prepares it for use.
// A responsive modem is reset, a silent one is powered on. Then echo is
// turned off, notifications are routed to the main UART, sleep mode is
// allowed and the SIM is waited for.
func (m *Module) BringUp(timeout time.Duration) error {
	return m.Record(m.bringUp(timeout))
}

func (m *Module) bringUp(timeout time.Duration) error {
	if m.IsResponsive() {
		print("Resetting module")
		if err := m.reset(timeout); err != nil {
			return WithCode(Unknown, err)
		}
	} else {
		print("Powering on module")
		if err := m.powerOn(timeout); err != nil {
			return WithCode(Unknown, err)
		}
	}

	if err := m.probe(bootProbeTimeout); err != nil {
		return Errorf(Unknown, "modem not responding after boot: %w", err)
	}
	if _, err := m.ch.SendAndAwait("ATE0", "^OK$", probeTimeout); err != nil {
		return Errorf(Unknown, "disable echo: %w", err)
	}
	if _, err := m.ch.SendAndAwait(`AT+QURCCFG="urcport","uart1"`, "^OK$", probeTimeout); err != nil {
		return Errorf(Unknown, "route notifications: %w", err)
	}
	if _, err := m.ch.SendAndAwait("AT+QSCLK=1", "^(OK|ERROR)$", probeTimeout); err != nil {
		return Errorf(Unknown, "enable sleep clock: %w", err)
	}

	print("Waiting for SIM")
	err := m.Poll(simReadyTimeout, m.simReady)
	if err != nil {
		return Errorf(Unknown, "SIM not ready: %w", err)
	}
	return nil
}

// simReady runs one AT+CPIN? round. The SIM counts as ready only if
// both READY and the final OK are seen in the same round.
func (m *Module) simReady() (bool, error) {
	if err := m.ch.Send("AT+CPIN?"); err != nil {
		return false, err
	}
	ready := false
	for {
		resp, err := m.ch.Await(`^(OK|\+CPIN: READY|\+CME ERROR: .*)$`, probeTimeout)
		if err != nil {
			return false, err
		}
		if resp == "+CPIN: READY" {
			ready = true
			continue
		}
		return resp == "OK" && ready, nil
	}
}

// PowerDown asks the modem to shut down and waits for it to confirm.
func (m *Module) PowerDown(timeout time.Duration) error {
	return m.Record(m.powerDown(timeout))
}

func (m *Module) powerDown(timeout time.Duration) error {
	err := m.Poll(timeout, func() (bool, error) {
		resp, err := m.ch.SendAndAwait("AT+QPOWD", "^(OK|ERROR)$", probeTimeout)
		if err != nil {
			return false, err
		}
		return resp == "OK", nil
	})
	if err != nil {
		return Errorf(Unknown, "power down not accepted: %w", err)
	}
	if _, err := m.ch.Await("^POWERED DOWN$", powerDownTimeout); err != nil {
		return Errorf(Unknown, "no power down notification: %w", err)
	}
	return nil
}

// Sleep lets the modem enter sleep mode by raising DTR.
func (m *Module) Sleep() error {
	if err := m.lines.SetSleep(true); err != nil {
		return m.Record(Errorf(Unknown, "sleep: %w", err))
	}
	return m.Record(nil)
}

// Wakeup lowers DTR and waits for the modem to answer again.
func (m *Module) Wakeup() error {
	if err := m.lines.SetSleep(false); err != nil {
		return m.Record(Errorf(Unknown, "wakeup: %w", err))
	}
	if err := m.probe(responsiveTimeout); err != nil {
		return m.Record(Errorf(Unknown, "modem did not wake up: %w", err))
	}
	return m.Record(nil)
}
