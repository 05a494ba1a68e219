package xdd

import "errors"

var (
	ErrIllegalArgument    = errors.New("illegal argument")
	ErrTargetUnconfigured = errors.New("target not configured")
	ErrAbort              = errors.New("run aborted")
	ErrProtocol           = errors.New("protocol violation")
	ErrLockstepStop       = errors.New("lockstep requested stop")
	ErrDioRealign         = errors.New("direct I/O realignment failed")
	ErrOpenTarget         = errors.New("could not open target")
	ErrBarrierClosed      = errors.New("barrier closed")
)
