package fetch

// Status is the position of a Manager in its state machine:
// Idle -> Loading -> {Resolved | Failed | Canceled} -> Loading -> ...
type Status int

const (
	StatusIdle     Status = iota // Nothing triggered yet
	StatusLoading                // An operation is outstanding
	StatusResolved               // The last current operation succeeded
	StatusFailed                 // The last current operation failed
	StatusCanceled               // The last load was canceled before settling
)

// String returns a human-readable name for the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of a Manager's fetch state.
type Snapshot[A any, R any] struct {
	// IsLoading is true while an operation is outstanding.
	IsLoading bool

	// IsCanceled is true if the most recent load was canceled.
	IsCanceled bool

	// LoadCount increases by one on every Trigger.
	LoadCount uint64

	// Data is the last successfully resolved value. Valid when HasData.
	Data    R
	HasData bool

	// Err is the last failure, always an *OperationError.
	Err error

	// PendingArgs are the arguments of the outstanding operation.
	// Valid when HasPending.
	PendingArgs A
	HasPending  bool
}

// Status derives the state machine position from the snapshot.
func (s Snapshot[A, R]) Status() Status {
	switch {
	case s.IsLoading:
		return StatusLoading
	case s.IsCanceled:
		return StatusCanceled
	case s.Err != nil:
		return StatusFailed
	case s.HasData:
		return StatusResolved
	default:
		return StatusIdle
	}
}
