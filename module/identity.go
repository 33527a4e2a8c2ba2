package module

// Revision returns the firmware revision, e.g. "EC21JFAR06A01M4G".
func (m *Module) Revision() (string, error) {
	rev, err := m.singleValue("AT+CGMR", `^(OK|[0-9A-Z_]+)$`)
	return rev, m.Record(err)
}

// IMEI returns the modem's IMEI.
func (m *Module) IMEI() (string, error) {
	imei, err := m.singleValue("AT+GSN", `^(OK|[0-9]+)$`)
	return imei, m.Record(err)
}

// IMSI returns the SIM's IMSI.
func (m *Module) IMSI() (string, error) {
	imsi, err := m.singleValue("AT+CIMI", `^(OK|[0-9]+)$`)
	return imsi, m.Record(err)
}

// singleValue reads the lines of an information reply up to the final OK
// and returns the last one.
func (m *Module) singleValue(cmd, pattern string) (string, error) {
	if err := m.ch.Send(cmd); err != nil {
		return "", Errorf(Unknown, "%s: %w", cmd, err)
	}
	value := ""
	for {
		resp, err := m.ch.Await(pattern, probeTimeout)
		if err != nil {
			return "", Errorf(Unknown, "%s: %w", cmd, err)
		}
		if resp == "OK" {
			return value, nil
		}
		value = resp
	}
}

// ICCID returns the SIM's ICCID.
func (m *Module) ICCID() (string, error) {
	resp, err := m.ch.SendAndAwait("AT+QCCID", `^\+QCCID: (.*)$`, probeTimeout)
	if err != nil {
		return "", m.Record(Errorf(Unknown, "AT+QCCID: %w", err))
	}
	if _, err := m.ch.Await("^OK$", probeTimeout); err != nil {
		return "", m.Record(Errorf(Unknown, "AT+QCCID: %w", err))
	}
	// last character is the padding nibble
	if resp != "" {
		resp = resp[:len(resp)-1]
	}
	return resp, m.Record(nil)
}

// PhoneNumber returns the subscriber number stored on the SIM.
// It is empty if the SIM does not carry one.
func (m *Module) PhoneNumber() (string, error) {
	number, err := m.phoneNumber()
	return number, m.Record(err)
}

func (m *Module) phoneNumber() (string, error) {
	if err := m.ch.Send("AT+CNUM"); err != nil {
		return "", Errorf(Unknown, "AT+CNUM: %w", err)
	}
	number := ""
	for {
		resp, err := m.ch.Await(`^(OK|\+CNUM: .*)$`, probeTimeout)
		if err != nil {
			return "", Errorf(Unknown, "AT+CNUM: %w", err)
		}
		if resp == "OK" {
			return number, nil
		}
		if number != "" {
			continue
		}
		args, _ := ReplyArgs(resp, "+CNUM")
		if len(args) < 2 {
			return "", Errorf(Unknown, "AT+CNUM: %q: %w", resp, ErrUnexpectedReply)
		}
		number = args[1]
	}
}

// ReceivedSignalStrength returns the signal level in dBm.
// -999 means the modem does not know.
func (m *Module) ReceivedSignalStrength() (int, error) {
	dbm, err := m.receivedSignalStrength()
	return dbm, m.Record(err)
}

func (m *Module) receivedSignalStrength() (int, error) {
	resp, err := m.ch.SendAndAwait("AT+CSQ", `^\+CSQ: (.*)$`, probeTimeout)
	if err != nil {
		return 0, Errorf(Unknown, "AT+CSQ: %w", err)
	}
	args := ParseArgs(resp)
	if len(args) != 2 {
		return 0, Errorf(Unknown, "AT+CSQ: %q: %w", resp, ErrUnexpectedReply)
	}
	rssi, err := Atoi(args[0])
	if err != nil {
		return 0, Errorf(Unknown, "AT+CSQ: bad rssi %q: %w", args[0], err)
	}
	if _, err := m.ch.Await("^OK$", probeTimeout); err != nil {
		return 0, Errorf(Unknown, "AT+CSQ: %w", err)
	}
	return RSSIToDBm(rssi), nil
}

// UnknownDBm is reported for rssi values without a defined level.
const UnknownDBm = -999

// RSSIToDBm converts a +CSQ rssi value to dBm.
// 0..31 and 99 are the GSM/UMTS range, 100..191 and 199 the LTE range.
func RSSIToDBm(rssi int) int {
	switch {
	case rssi == 0:
		return -113
	case rssi == 1:
		return -111
	case 2 <= rssi && rssi <= 30:
		return int(linearScale(float64(rssi), 2, 30, -109, -53))
	case rssi == 31:
		return -51
	case rssi == 100:
		return -116
	case rssi == 101:
		return -115
	case 102 <= rssi && rssi <= 190:
		return int(linearScale(float64(rssi), 102, 190, -114, -26))
	case rssi == 191:
		return -25
	default:
		return UnknownDBm
	}
}

func linearScale(v, inMin, inMax, outMin, outMax float64) float64 {
	return (v-inMin)/(inMax-inMin)*(outMax-outMin) + outMin
}
