package fallfsm

// State is the lifecycle state of the fall confirmation machine.
type State string

const (
	StateNormal       State = "normal"       // no active fall condition
	StateAccumulating State = "accumulating" // fall condition held for 1..threshold-1 frames
	StateConfirmed    State = "confirmed"    // alarm latched until external reset
)

// Machine debounces a per-frame fall condition into a confirmed alarm.
// The counter increments while the condition holds and resets to zero
// the instant it does not. Crossing the threshold is a one-way edge:
// the machine latches Confirmed and only an explicit Reset releases it.
type Machine struct {
	threshold int
	count     int
	confirmed bool
}

// NewMachine creates a machine that confirms after the fall condition
// has held for threshold consecutive frames. A threshold below 1 is
// treated as 1.
func NewMachine(threshold int) *Machine {
	if threshold < 1 {
		threshold = 1
	}
	return &Machine{threshold: threshold}
}

// Advance feeds one frame's fall condition. It returns true exactly once:
// on the frame the counter first reaches the threshold. While already
// Confirmed the counter keeps tracking the condition but no further
// alarm is emitted.
func (m *Machine) Advance(falling bool) bool {
	if !falling {
		m.count = 0
		return false
	}
	m.count++
	if m.count == m.threshold && !m.confirmed {
		m.confirmed = true
		return true
	}
	return false
}

// Reset is the external clear signal: it releases a Confirmed alarm and
// zeroes the counter.
func (m *Machine) Reset() {
	m.count = 0
	m.confirmed = false
}

// State reports the current lifecycle state.
func (m *Machine) State() State {
	switch {
	case m.confirmed:
		return StateConfirmed
	case m.count > 0:
		return StateAccumulating
	default:
		return StateNormal
	}
}

// Count returns the current consecutive-fall-frame count.
func (m *Machine) Count() int {
	return m.count
}

// Confirmed reports whether the alarm is latched.
func (m *Machine) Confirmed() bool {
	return m.confirmed
}
