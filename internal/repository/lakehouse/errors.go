package lakehouse

import (
	errwrap "github.com/pkg/errors"
)

var (
	// ErrConnectionUnavailable means the workspace is unknown or unreachable.
	ErrConnectionUnavailable = errwrap.New("connection unavailable")
	// ErrQueryExecution means the engine rejected or failed the SQL.
	ErrQueryExecution = errwrap.New("query execution failed")
)

// Remediation is shown to the user alongside ErrConnectionUnavailable.
const Remediation = "make sure the workspace is configured in WORKSPACES (name=dsn;name2=dsn2) and reachable, " +
	"e.g. /workspaces/foo/dashboard selects workspace foo"

// Error keeps the sentinel kind and the driver error apart so callers can
// match on the kind and still show the cause.
type Error struct {
	Kind      error
	Op        string
	Workspace string
	Err       error
}

func (e *Error) Error() string {
	return e.Op + ": workspace " + e.Workspace + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func connectionError(op, workspace string, err error) error {
	return &Error{Kind: ErrConnectionUnavailable, Op: op, Workspace: workspace, Err: err}
}

func queryError(op, workspace string, err error) error {
	return &Error{Kind: ErrQueryExecution, Op: op, Workspace: workspace, Err: err}
}
