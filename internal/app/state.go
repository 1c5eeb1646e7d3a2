package app

// State is the loop's lifecycle state.
type State int

const (
	// Running processes frames.
	Running State = iota
	// Stopped is terminal; resources are released on entry.
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is the outcome of one loop iteration.
type Event int

const (
	// FrameDone means a frame was processed and no quit key was seen.
	FrameDone Event = iota
	// CaptureFailed means the camera did not deliver a frame.
	CaptureFailed
	// QuitKey means the quit key was pressed.
	QuitKey
	// Cancelled means the run context ended.
	Cancelled
	// DetectorFailed means the detector can no longer process frames.
	DetectorFailed
)

func (e Event) String() string {
	switch e {
	case FrameDone:
		return "frame"
	case CaptureFailed:
		return "capture failed"
	case QuitKey:
		return "quit key"
	case Cancelled:
		return "cancelled"
	case DetectorFailed:
		return "detector failed"
	default:
		return "unknown"
	}
}

// Next returns the state that follows s after event e.
func Next(s State, e Event) State {
	if s != Running {
		return Stopped
	}
	if e == FrameDone {
		return Running
	}
	return Stopped
}
