package cart

// State is the reconciler lifecycle.
//
//	Uninitialized → Creating → Ready ⇄ Mutating
//	Creating → Degraded (terminal)
type State int

const (
	Uninitialized State = iota
	Creating
	Ready
	Mutating
	Degraded
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Creating:
		return "creating"
	case Ready:
		return "ready"
	case Mutating:
		return "mutating"
	case Degraded:
		return "degraded"
	default:
		return "unknown"
	}
}
