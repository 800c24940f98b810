package tab

// State is the tab lifecycle state.
//
//	Created → Loading → {Loaded | Failed} → Active ⇄ Suspended → Closing → Closed
//
// The repaint loop runs only in Active. Closing halts repaint and releases
// the surface regardless of the prior state.
type State int

const (
	StateCreated State = iota
	StateLoading
	StateLoaded
	StateFailed
	StateActive
	StateSuspended
	StateClosing
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	case StateActive:
		return "active"
	case StateSuspended:
		return "suspended"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// terminal reports whether no further commands can be accepted.
func (s State) terminal() bool {
	return s == StateClosing || s == StateClosed
}
