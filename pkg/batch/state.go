package batch

// State is the lifecycle position of a Driver.
type State int

const (
	NotStarted State = iota
	Running
	Finalizing
	Done
	Canceled
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Finalizing:
		return "finalizing"
	case Done:
		return "done"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool { return s == Done || s == Canceled }

// per-document stages, logged at debug level
const (
	stageExtracting = "extracting"
	stageCounting   = "counting"
	stageRecorded   = "recorded"
)
