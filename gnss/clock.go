package gnss

import (
	"fmt"
	"strconv"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
)

const ntpTimeout = 125 * time.Second

// SyncTime sets the modem clock from the NTP server host.
func (r *Receiver) SyncTime(host string) error {
	return r.m.Record(r.syncTime(host))
}

func (r *Receiver) syncTime(host string) error {
	if _, err := r.ch.SendAndAwait(fmt.Sprintf(`AT+QNTP=1,"%s"`, host), "^OK$", replyTimeout); err != nil {
		return module.Errorf(module.Unknown, "start time sync: %w", err)
	}
	resp, err := r.ch.Await(`^\+QNTP: (.*)$`, ntpTimeout)
	if err != nil {
		return module.Errorf(module.Unknown, "time sync: %w", err)
	}
	if args := module.ParseArgs(resp); args[0] != "0" || len(args) < 2 {
		return module.Errorf(module.Unknown, "time sync failed: %s", resp)
	}
	return nil
}

// Time reads the modem clock.
func (r *Receiver) Time() (time.Time, error) {
	t, err := r.time()
	return t, r.m.Record(err)
}

func (r *Receiver) time() (time.Time, error) {
	resp, err := r.ch.SendAndAwait("AT+CCLK?", `^\+CCLK: (.*)$`, replyTimeout)
	if err != nil {
		return time.Time{}, module.Errorf(module.Unknown, "read clock: %w", err)
	}
	if _, err := r.ch.Await("^OK$", replyTimeout); err != nil {
		return time.Time{}, module.Errorf(module.Unknown, "read clock: %w", err)
	}
	t, err := parseCCLK(resp)
	if err != nil {
		return time.Time{}, module.WithCode(module.Unknown, err)
	}
	return t, nil
}

// parseCCLK parses the quoted clock value "yy/MM/dd,hh:mm:ss±zz", where
// zz is the offset from UTC in quarter hours.
func parseCCLK(s string) (time.Time, error) {
	bad := fmt.Errorf("clock %s: %w", s, ErrBadReply)
	if len(s) != 22 {
		return time.Time{}, bad
	}
	for i, c := range map[int]byte{0: '"', 3: '/', 6: '/', 9: ',', 12: ':', 15: ':', 21: '"'} {
		if s[i] != c {
			return time.Time{}, bad
		}
	}
	var f [7]int
	for i, off := range []int{1, 4, 7, 10, 13, 16, 19} {
		n, err := strconv.Atoi(s[off : off+2])
		if err != nil {
			return time.Time{}, bad
		}
		f[i] = n
	}
	offset := f[6] * 15 * 60
	switch s[18] {
	case '+':
	case '-':
		offset = -offset
	default:
		return time.Time{}, bad
	}
	zone := time.FixedZone("", offset)
	return time.Date(fullYear(f[0]), time.Month(f[1]), f[2], f[3], f[4], f[5], 0, zone), nil
}
