package osmextract

// State is a step of an Execute run. States advance in declaration order;
// a run that fails stops at the last state it completed.
type State int

const (
	StateInit State = iota
	StateTreeOpened
	StateLeavesProcessed
	StateRelationsProcessed
	StateMerged
	// StateCleanedUp means the scratch directory was removed.
	StateCleanedUp
	// StateRetained means the scratch directory was kept on request.
	StateRetained
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateTreeOpened:
		return "tree-opened"
	case StateLeavesProcessed:
		return "leaves-processed"
	case StateRelationsProcessed:
		return "relations-processed"
	case StateMerged:
		return "merged"
	case StateCleanedUp:
		return "cleaned-up"
	case StateRetained:
		return "retained"
	default:
		return "unknown"
	}
}
