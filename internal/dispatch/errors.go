package dispatch

import "errors"

// Sentinel errors for dispatch preconditions, checkable with errors.Is().
// Precondition failures are detected before any sub-operation starts; a
// failed dispatch never leaves half-executed work behind.
var (
	// ErrNoTarget indicates a target verb issued with no selection and no
	// selector argument.
	ErrNoTarget = errors.New("no target: nothing selected and no selector given")

	// ErrAmbiguousInput indicates a verb whose semantics cannot fan out
	// over the resolved targets, such as exec with stdin attached or
	// port-forward against more than one object.
	ErrAmbiguousInput = errors.New("ambiguous input for multiple targets")

	// ErrUnknownVerb indicates a verb string the dispatcher does not know.
	ErrUnknownVerb = errors.New("unknown verb")
)
