package pipeline

// Phase is where a stream's extraction currently is.
type Phase int

const (
	// PhaseIdle is before the first fetch of a stream
	PhaseIdle Phase = iota
	// PhaseFetching is waiting on the API for a day
	PhaseFetching
	// PhaseCleaning is normalizing a fetched day and handing it to the destination
	PhaseCleaning
	// PhaseEmitted means a day's records were accepted and its bookmark saved
	PhaseEmitted
	// PhaseExhausted means every day up to today has been emitted
	PhaseExhausted
	// PhaseFailed is terminal; the bookmark stays at the last emitted day
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseFetching:
		return "fetching"
	case PhaseCleaning:
		return "cleaning"
	case PhaseEmitted:
		return "emitted"
	case PhaseExhausted:
		return "exhausted"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// verb phrases p for error messages.
func (p Phase) verb() string {
	switch p {
	case PhaseFetching:
		return "fetching"
	case PhaseCleaning:
		return "cleaning and writing records"
	case PhaseEmitted:
		return "saving state"
	default:
		return "starting"
	}
}
