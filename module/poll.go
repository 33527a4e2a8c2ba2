package module

import (
	"time"

	"github.com/LassiHeikkila/WioLTE/output"
)

// PollInterval is the pause between two rounds of every polling loop.
const PollInterval = 100 * time.Millisecond

// Poll runs fn until it reports done, fails, or timeout has elapsed.
// fn always runs at least once, and rounds are separated by PollInterval.
// ErrPollTimeout is returned when time runs out.
func (m *Module) Poll(timeout time.Duration, fn func() (bool, error)) error {
	var bar *output.WaitBar
	if m.progress && timeout >= time.Second {
		bar = output.NewWaitBar("waiting ", int(timeout/PollInterval))
		defer bar.Done()
	}

	start := m.now()
	for {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if m.since(start) >= timeout {
			return ErrPollTimeout
		}
		m.Delay(PollInterval)
		bar.Step()
	}
}

// Delay pauses for d with the configured delay function.
func (m *Module) Delay(d time.Duration) {
	m.delay(d)
}

func (m *Module) since(t time.Time) time.Duration {
	return m.now().Sub(t)
}
