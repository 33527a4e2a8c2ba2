package main

import (
	"sync"
	"time"

	"github.com/LassiHeikkila/WioLTE/gnss"
	"github.com/LassiHeikkila/WioLTE/module"
	"github.com/LassiHeikkila/WioLTE/sms"
)

// Device serializes access to the modem; the driver itself is not safe
// for concurrent use.
type Device struct {
	mu      sync.Mutex
	m       *module.Module
	mailbox *sms.Mailbox
	gnss    *gnss.Receiver
	metrics *Metrics
}

// Info identifies the modem and its SIM.
type Info struct {
	Revision    string `json:"revision"`
	IMEI        string `json:"imei"`
	IMSI        string `json:"imsi"`
	ICCID       string `json:"iccid"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// NewDevice wraps m.
func NewDevice(m *module.Module, metrics *Metrics) *Device {
	return &Device{
		m:       m,
		mailbox: sms.NewMailbox(m),
		gnss:    gnss.New(m),
		metrics: metrics,
	}
}

func (d *Device) do(operation string, fn func() error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	start := time.Now()
	err := fn()
	d.metrics.Observe(operation, start, err)
	return err
}

// Info queries the identity of the modem and SIM.
// Not every SIM stores its own number, so PhoneNumber may be empty.
func (d *Device) Info() (Info, error) {
	var info Info
	err := d.do("info", func() error {
		var err error
		if info.Revision, err = d.m.Revision(); err != nil {
			return err
		}
		if info.IMEI, err = d.m.IMEI(); err != nil {
			return err
		}
		if info.IMSI, err = d.m.IMSI(); err != nil {
			return err
		}
		if info.ICCID, err = d.m.ICCID(); err != nil {
			return err
		}
		info.PhoneNumber, _ = d.m.PhoneNumber()
		return nil
	})
	return info, err
}

// Signal returns the received signal strength in dBm.
func (d *Device) Signal() (int, error) {
	var dbm int
	err := d.do("signal", func() error {
		var err error
		dbm, err = d.m.ReceivedSignalStrength()
		return err
	})
	if err == nil && dbm != module.UnknownDBm {
		d.metrics.signalDBm.Set(float64(dbm))
	}
	return dbm, err
}

// SendSMS sends text to number. PDU mode handles any alphabet and long
// texts; text mode sends the text as is.
func (d *Device) SendSMS(number, text string, pdu bool) error {
	return d.do("sms_send", func() error {
		if pdu {
			return d.mailbox.SendPDU(number, text)
		}
		return d.mailbox.Send(number, text)
	})
}

// NextMessage returns the first stored message, with Index sms.NoMessage
// if there is none.
func (d *Device) NextMessage() (sms.Message, error) {
	var msg sms.Message
	err := d.do("sms_receive", func() error {
		var err error
		msg, err = d.mailbox.Receive()
		return err
	})
	return msg, err
}

// DeleteMessage deletes the message NextMessage returned.
func (d *Device) DeleteMessage() error {
	return d.do("sms_delete", d.mailbox.DeleteFirstReceived)
}

// Location returns the current GNSS fix.
func (d *Device) Location() (gnss.Fix, error) {
	var fix gnss.Fix
	err := d.do("location", func() error {
		var err error
		fix, err = d.gnss.Location()
		return err
	})
	return fix, err
}

// Time returns the modem clock.
func (d *Device) Time() (time.Time, error) {
	var t time.Time
	err := d.do("time", func() error {
		var err error
		t, err = d.gnss.Time()
		return err
	})
	return t, err
}
