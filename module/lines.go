package module

// ControlLines drives the modem's hardware inputs.
// high selects the electrical level of the line.
type ControlLines interface {
	SetPowerKey(high bool) error
	SetReset(high bool) error
	SetSleep(high bool) error
}

// NoControlLines is used when the host cannot drive any modem input.
// Every call fails with ErrLineNotWired.
type NoControlLines struct{}

func (NoControlLines) SetPowerKey(bool) error { return ErrLineNotWired }
func (NoControlLines) SetReset(bool) error    { return ErrLineNotWired }
func (NoControlLines) SetSleep(bool) error    { return ErrLineNotWired }
