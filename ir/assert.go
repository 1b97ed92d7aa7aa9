package ir

import "fmt"

// InvariantError is the panic value raised when the IR's structural
// invariants cannot be maintained. It signals a bug in the core or in a
// pass, never a recoverable runtime condition — see spec §7/§9: invariant
// violations are fatal to the running process, not errors to propagate.
type InvariantError struct {
	Message string
}

func (e *InvariantError) Error() string {
	return e.Message
}

// Assert panics with an *InvariantError when cond is false. Mutation
// primitives and the oracle call this instead of returning an error,
// matching the teacher's treatment of assertions as process-fatal bugs.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(&InvariantError{Message: fmt.Sprintf(format, args...)})
	}
}
