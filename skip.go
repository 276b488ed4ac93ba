package gobatch

// SkipPolicy decides, for a given ErrorKind, whether the step driver may
// tolerate a failure as a skip (subject to the step's skip limit) rather
// than failing the step immediately.
//
// Representing the policy as data — a set of kinds — rather than a
// closure keeps the driver independent of the error taxonomy's open
// extensions (spec.md §9 Design Note) and lets specfile construct a
// policy from a declarative job spec.
type SkipPolicy struct {
	kinds map[ErrorKind]bool
}

// DefaultSkipPolicy treats read, process, and write errors as skippable,
// matching spec.md §4.5's stated default. Filtered is never consulted —
// it is unconditionally free — and tasklet/lifecycle/configuration
// errors are never skippable regardless of policy.
func DefaultSkipPolicy() SkipPolicy {
	return NewSkipPolicy(KindRead, KindProcess, KindWrite)
}

// NewSkipPolicy builds a SkipPolicy that treats exactly the given kinds
// as skippable. Kinds outside {KindRead, KindProcess, KindWrite} are
// accepted but have no effect, since only those three kinds are ever
// consulted by the chunk-mode step driver.
func NewSkipPolicy(kinds ...ErrorKind) SkipPolicy {
	set := make(map[ErrorKind]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return SkipPolicy{kinds: set}
}

// NoSkipPolicy tolerates nothing: the first read, process, or write error
// fails the step regardless of skip limit.
func NoSkipPolicy() SkipPolicy {
	return SkipPolicy{}
}

// Allows reports whether kind is skippable under this policy.
func (p SkipPolicy) Allows(kind ErrorKind) bool {
	return p.kinds[kind]
}
