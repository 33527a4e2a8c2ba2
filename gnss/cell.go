package gnss

import (
	"strconv"
	"strings"
	"time"

	"github.com/LassiHeikkila/WioLTE/module"
)

const cellTimeout = 60 * time.Second

// CellLocation returns a coarse position derived from the serving cell.
// The PDP context must be active.
func (r *Receiver) CellLocation() (longitude, latitude float64, err error) {
	longitude, latitude, err = r.cellLocation()
	return longitude, latitude, r.m.Record(err)
}

func (r *Receiver) cellLocation() (float64, float64, error) {
	if _, err := r.ch.SendAndAwait(`AT+QLOCCFG="contextid",1`, "^OK$", replyTimeout); err != nil {
		return 0, 0, module.Errorf(module.Unknown, "configure cell location: %w", err)
	}
	resp, err := r.ch.SendAndAwait("AT+QCELLLOC", `^(\+QCELLLOC: .*|\+CME ERROR: .*)$`, cellTimeout)
	if err != nil {
		return 0, 0, module.Errorf(module.Unknown, "query cell location: %w", err)
	}
	args, ok := module.ReplyArgs(resp, "+QCELLLOC")
	if !ok {
		return 0, 0, module.Errorf(module.Unknown, "query cell location: %s", resp)
	}
	if len(args) != 2 {
		return 0, 0, module.Errorf(module.Unknown, "%d cell location fields: %w", len(args), ErrBadReply)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
	if err != nil {
		return 0, 0, module.Errorf(module.Unknown, "longitude %q: %w", args[0], ErrBadReply)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return 0, 0, module.Errorf(module.Unknown, "latitude %q: %w", args[1], ErrBadReply)
	}
	if _, err := r.ch.Await("^OK$", replyTimeout); err != nil {
		return 0, 0, module.Errorf(module.Unknown, "query cell location: %w", err)
	}
	return lon, lat, nil
}
