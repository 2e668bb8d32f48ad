package lifecycle

import "sync/atomic"

// Phase is where the app is in its window lifetime.
type Phase int32

const (
	Starting Phase = iota
	Running
	Closing
)

var current atomic.Int32

// Set records the current phase.
func Set(p Phase) {
	current.Store(int32(p))
}

// Current returns the phase last passed to Set, Starting by default.
func Current() Phase {
	return Phase(current.Load())
}

func (p Phase) String() string {
	switch p {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}
