package dispatch

import (
	"errors"

	"github.com/collctx/ccc/internal/command"
	"github.com/collctx/ccc/internal/contextlog"
	"github.com/collctx/ccc/internal/identity"
	"github.com/collctx/ccc/internal/lockfile"
	"github.com/collctx/ccc/internal/store"
)

// Stable exit codes, one per failure kind, so scripts and agents can
// branch on how an invocation failed.
const (
	ExitOK               = 0
	ExitInternal         = 1
	ExitUnknownCommand   = 2
	ExitAmbiguous        = 3
	ExitIncomplete       = 4
	ExitTooManyArguments = 5
	ExitUnknownIdentity  = 6
	ExitDuplicateSession = 7
	ExitSessionNotFound  = 8
	ExitLockContention   = 9
	ExitStoreCorruption  = 10
)

// ExitCode maps an error from Dispatch to its stable exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, command.ErrUnknown):
		return ExitUnknownCommand
	case errors.Is(err, command.ErrAmbiguous):
		return ExitAmbiguous
	case errors.Is(err, command.ErrIncomplete):
		return ExitIncomplete
	case errors.Is(err, command.ErrTooManyArguments):
		return ExitTooManyArguments
	case errors.Is(err, identity.ErrUnknownIdentity):
		return ExitUnknownIdentity
	case errors.Is(err, store.ErrDuplicate):
		return ExitDuplicateSession
	case errors.Is(err, store.ErrNotFound):
		return ExitSessionNotFound
	case errors.Is(err, lockfile.ErrContention):
		return ExitLockContention
	case errors.Is(err, store.ErrCorrupt), errors.Is(err, contextlog.ErrCorrupt):
		return ExitStoreCorruption
	default:
		return ExitInternal
	}
}
