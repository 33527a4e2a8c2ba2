// Package gnss reads position and time from the modem: satellite fixes
// from the GNSS engine, network time, and coarse cell-based location.
package gnss

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/LassiHeikkila/WioLTE/module"
)

const replyTimeout = 500 * time.Millisecond

var (
	// ErrNotFixed is returned by Location until the receiver has a fix.
	// Its code is module.GnssNotFixed.
	ErrNotFixed = errors.New("position not fixed yet")
	// ErrBadReply is returned for replies that cannot be parsed.
	ErrBadReply = errors.New("malformed reply")
)

// Fix is a position reported by the GNSS engine.
// Time is zero if the receiver did not report a date; callers that
// need it check Time.IsZero.
type Fix struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
	Altitude  float64
}

func (f Fix) String() string {
	return fmt.Sprintf("%.6f,%.6f alt %.1f at %s", f.Latitude, f.Longitude, f.Altitude, f.Time.Format(time.RFC3339))
}

// Receiver gives access to the positioning functions of a Module.
type Receiver struct {
	m  *module.Module
	ch module.Channel
}

// New returns a Receiver using m.
func New(m *module.Module) *Receiver {
	return &Receiver{m: m, ch: m.Channel()}
}

// Enable starts the GNSS engine, retrying until the modem accepts or
// timeout elapses. A modem that stops answering fails with module.Timeout.
func (r *Receiver) Enable(timeout time.Duration) error {
	return r.m.Record(r.enable(timeout))
}

func (r *Receiver) enable(timeout time.Duration) error {
	err := r.m.Poll(timeout, func() (bool, error) {
		resp, err := r.ch.SendAndAwait("AT+QGPS=1", `^(OK|ERROR|\+CME ERROR: 504)$`, replyTimeout)
		if err != nil {
			return false, module.Errorf(module.Timeout, "start GNSS: %w", err)
		}
		// 504: a session is already running
		return resp != "ERROR", nil
	})
	if errors.Is(err, module.ErrPollTimeout) {
		return module.Errorf(module.Unknown, "start GNSS: %w", err)
	}
	return err
}

// Disable stops the GNSS engine.
func (r *Receiver) Disable() error {
	if _, err := r.ch.SendAndAwait("AT+QGPSEND", "^OK$", replyTimeout); err != nil {
		return r.m.Record(module.Errorf(module.Timeout, "stop GNSS: %w", err))
	}
	return r.m.Record(nil)
}

// Location returns the current fix. Before the first fix the error has
// code module.GnssNotFixed and wraps ErrNotFixed.
func (r *Receiver) Location() (Fix, error) {
	fix, err := r.location()
	return fix, r.m.Record(err)
}

func (r *Receiver) location() (Fix, error) {
	if err := r.ch.Send("AT+QGPSLOC?"); err != nil {
		return Fix{}, module.WithCode(module.Unknown, err)
	}
	var loc string
	for {
		resp, err := r.ch.Await(`^(OK|\+QGPSLOC: .*|\+CME ERROR: .*)$`, replyTimeout)
		if err != nil {
			return Fix{}, module.Errorf(module.Timeout, "query location: %w", err)
		}
		if resp == "OK" {
			break
		}
		if args, ok := module.ReplyArgs(resp, "+CME ERROR"); ok {
			if strings.TrimSpace(args[0]) == "516" {
				return Fix{}, module.WithCode(module.GnssNotFixed, ErrNotFixed)
			}
			return Fix{}, module.Errorf(module.Unknown, "query location: %s", resp)
		}
		loc = resp
	}
	args, ok := module.ReplyArgs(loc, "+QGPSLOC")
	if !ok {
		return Fix{}, module.Errorf(module.Unknown, "no location in reply: %w", ErrBadReply)
	}
	fix, err := parseFix(args)
	if err != nil {
		return Fix{}, module.WithCode(module.Unknown, err)
	}
	return fix, nil
}

// parseFix reads the fields of a +QGPSLOC reply:
//
//	<UTC>,<latitude>,<longitude>,<hdop>,<altitude>,<fix>,<cog>,<spkm>,<spkn>,<date>,<nsat>
func parseFix(args []string) (Fix, error) {
	if len(args) < 5 {
		return Fix{}, fmt.Errorf("%d location fields: %w", len(args), ErrBadReply)
	}
	var (
		fix Fix
		err error
	)
	if fix.Latitude, err = parseCoordinate(args[1], 'N'); err != nil {
		return Fix{}, err
	}
	if fix.Longitude, err = parseCoordinate(args[2], 'E'); err != nil {
		return Fix{}, err
	}
	if fix.Altitude, err = strconv.ParseFloat(strings.TrimSpace(args[4]), 64); err != nil {
		return Fix{}, fmt.Errorf("altitude %q: %w", args[4], ErrBadReply)
	}
	if len(args) >= 10 {
		if fix.Time, err = parseFixTime(args[9], args[0]); err != nil {
			return Fix{}, err
		}
	}
	return fix, nil
}

// parseCoordinate converts "DDDMM.MMMM" with a trailing hemisphere letter
// to decimal degrees, negative unless the letter is positive.
func parseCoordinate(s string, positive byte) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty coordinate: %w", ErrBadReply)
	}
	v, err := strconv.ParseFloat(strings.TrimRightFunc(s, unicode.IsLetter), 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q: %w", s, ErrBadReply)
	}
	deg := float64(int(v) / 100)
	dec := deg + (v-deg*100)/60
	if s[len(s)-1] != positive {
		dec = -dec
	}
	return dec, nil
}

// parseFixTime combines a "ddmmyy" date and a "hhmmss.s" time of day.
func parseFixTime(date, clock string) (time.Time, error) {
	if len(date) != 6 || len(clock) < 6 {
		return time.Time{}, fmt.Errorf("fix time %q %q: %w", date, clock, ErrBadReply)
	}
	var f [6]int
	for i, s := range []string{date[4:6], date[2:4], date[0:2], clock[0:2], clock[2:4], clock[4:6]} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, fmt.Errorf("fix time %q %q: %w", date, clock, ErrBadReply)
		}
		f[i] = n
	}
	return time.Date(fullYear(f[0]), time.Month(f[1]), f[2], f[3], f[4], f[5], 0, time.UTC), nil
}

// fullYear expands a two digit year: 80 and later are 19xx.
func fullYear(yy int) int {
	if yy >= 80 {
		return 1900 + yy
	}
	return 2000 + yy
}
