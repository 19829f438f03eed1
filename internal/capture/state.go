package capture

// State is a step of one capture cycle.
type State int

const (
	StateIdle State = iota
	StateSnapshottingAmbient
	StateSuppressed
	StateTriggering
	StateAwaitingHandle
	StateCaptured
	StateTimedOut
	StateTriggerNotFound
	StateRestoring
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSnapshottingAmbient:
		return "snapshotting-ambient"
	case StateSuppressed:
		return "suppressed"
	case StateTriggering:
		return "triggering"
	case StateAwaitingHandle:
		return "awaiting-handle"
	case StateCaptured:
		return "captured"
	case StateTimedOut:
		return "timed-out"
	case StateTriggerNotFound:
		return "trigger-not-found"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}
