package workflow

import "github.com/reflector-core/reflector/pkg/errs"

// ErrUnknownRun is returned by Engine.GetRun when the engine has no
// knowledge of the given run id. spec.md §4.1 treats this as "allowed"
// (not an error) when encountered during Validate's AlreadyScheduled
// check: "If the engine lookup fails (unknown workflow), treat as
// allowed."
var ErrUnknownRun = errs.New(errs.NotFound, "workflow", "GetRun", errs.ErrNotFound)

// ErrTransient signals an engine-side transient failure (connection,
// timeout) distinct from ErrUnknownRun, surfaced to Validate/Dispatch
// callers as a hard Error per spec.md §4.1's failure semantics ("engine
// API transient errors surface as Error to the caller").
func ErrTransient(op string, cause error) error {
	return errs.New(errs.Transient, "workflow", op, cause)
}
