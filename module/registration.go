package module

import (
	"fmt"
	"time"
)

const (
	activateTimeout   = 150 * time.Second
	deactivateTimeout = 40 * time.Second
)

// Registration status values reported by +CREG, +CGREG and +CEREG.
const (
	regNotSearching = 0
	regHome         = 1
	regRoaming      = 5
)

// AwaitCircuitRegistration polls AT+CREG? until the modem is registered
// on its home network or roaming. A "not registered, not searching"
// status fails at once.
func (m *Module) AwaitCircuitRegistration(timeout time.Duration) error {
	return m.Record(m.awaitRegistration(timeout, "+CREG"))
}

// AwaitPacketRegistration polls AT+CGREG? and AT+CEREG? until either
// reports a registration.
func (m *Module) AwaitPacketRegistration(timeout time.Duration) error {
	return m.Record(m.awaitRegistration(timeout, "+CGREG", "+CEREG"))
}

func (m *Module) awaitRegistration(timeout time.Duration, registers ...string) error {
	err := m.Poll(timeout, func() (bool, error) {
		for _, reg := range registers {
			status, err := m.registrationStatus(reg)
			if err != nil {
				return false, err
			}
			switch status {
			case regNotSearching:
				return false, fmt.Errorf("%s: %w", reg, ErrNotRegistered)
			case regHome, regRoaming:
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return Errorf(Unknown, "not registered: %w", err)
	}
	return nil
}

func (m *Module) registrationStatus(reg string) (int, error) {
	resp, err := m.ch.SendAndAwait("AT"+reg+"?", `^\`+reg+`: (.*)$`, probeTimeout)
	if err != nil {
		return 0, err
	}
	args := ParseArgs(resp)
	if len(args) < 2 {
		return 0, fmt.Errorf("%s: %q: %w", reg, resp, ErrUnexpectedReply)
	}
	status, err := Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("%s: bad status %q: %w", reg, args[1], err)
	}
	if _, err := m.ch.Await("^OK$", probeTimeout); err != nil {
		return 0, err
	}
	return status, nil
}

// Activate brings up PDP context 1.
// The APN profile is only written if the modem is not already attached
// to the packet network.
func (m *Module) Activate(apn, username, password string, timeout time.Duration) error {
	return m.Record(m.activate(apn, username, password, timeout))
}

func (m *Module) activate(apn, username, password string, timeout time.Duration) error {
	if m.awaitRegistration(0, "+CGREG", "+CEREG") != nil {
		printf("Configuring APN %q\n", apn)
		cmd := fmt.Sprintf(`AT+QICSGP=1,1,"%s","%s","%s",3`, apn, username, password)
		if _, err := m.ch.SendAndAwait(cmd, "^OK$", probeTimeout); err != nil {
			return Errorf(Unknown, "configure APN: %w", err)
		}
		if err := m.awaitRegistration(timeout, "+CGREG", "+CEREG"); err != nil {
			return err
		}
	}

	print("Activating PDP context")
	err := m.Poll(activateTimeout, func() (bool, error) {
		resp, err := m.ch.SendAndAwait("AT+QIACT=1", "^(OK|ERROR)$", activateTimeout)
		if err != nil {
			return false, err
		}
		if resp == "OK" {
			return true, nil
		}
		return false, m.logActivationError()
	})
	if err != nil {
		return Errorf(Unknown, "activate PDP context: %w", err)
	}
	return nil
}

func (m *Module) logActivationError() error {
	resp, err := m.ch.SendAndAwait("AT+QIGETERROR", `^(OK|\+QIGETERROR: .*)$`, probeTimeout)
	if err != nil {
		return err
	}
	if resp == "OK" {
		return nil
	}
	print("Activation rejected:", resp)
	_, err = m.ch.Await("^OK$", probeTimeout)
	return err
}

// Deactivate tears down PDP context 1.
func (m *Module) Deactivate() error {
	if _, err := m.ch.SendAndAwait("AT+QIDEACT=1", "^OK$", deactivateTimeout); err != nil {
		return m.Record(Errorf(Unknown, "deactivate PDP context: %w", err))
	}
	return m.Record(nil)
}
