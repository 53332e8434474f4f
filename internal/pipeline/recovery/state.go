package recovery

// State is the recovery ladder. Transitions move forward only (Healthy →
// Degraded → Recovering → Failed) or back to Healthy on success; Failed is
// terminal until the whole controller is restarted.
type State int

const (
	Healthy State = iota
	Degraded
	Recovering
	Failed
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Recovering:
		return "recovering"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
