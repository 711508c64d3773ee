package frameinfo

import "fmt"

// Code is the closed set of error categories the core ever returns. The
// host switches on Code instead of string-matching error text.
type Code uint8

const (
	// CodePredictionThreshold: the local player's input would speculate
	// further ahead than the session's max prediction window allows.
	CodePredictionThreshold Code = iota
	// CodeInvalidRequest: the host handed back a Request it did not fulfill
	// (wrong frame, wrong cell) or otherwise misused the request protocol.
	CodeInvalidRequest
	// CodeNotSynchronized: the session is not yet in the Running state.
	CodeNotSynchronized
	// CodeMismatchedChecksum: a SyncTest resimulation produced a checksum
	// that disagrees with the one recorded on the first pass.
	CodeMismatchedChecksum
	// CodeSpectatorTooFarBehind: a spectator fell behind further than its
	// configured catch-up window can recover from.
	CodeSpectatorTooFarBehind
	// CodeInvalidFrame: a frame number was negative, stale, or otherwise
	// outside the operation's valid range.
	CodeInvalidFrame
	// CodeInvalidPlayerHandle: a PlayerHandle did not name a player in the
	// session's player table.
	CodeInvalidPlayerHandle
	// CodeMissingInput: an input was requested for a frame the producing
	// queue has no record of and cannot predict.
	CodeMissingInput
	// CodeSerializationError: the wire or input codec rejected a malformed
	// or truncated buffer.
	CodeSerializationError
	// CodeInternalError: an invariant the core itself is responsible for
	// was violated; this indicates a bug in the core, not in the host.
	CodeInternalError
	// CodeSocketError: the non-blocking socket collaborator returned an
	// error at a point the core cannot route around (e.g. at setup).
	CodeSocketError
)

func (c Code) String() string {
	switch c {
	case CodePredictionThreshold:
		return "PredictionThreshold"
	case CodeInvalidRequest:
		return "InvalidRequest"
	case CodeNotSynchronized:
		return "NotSynchronized"
	case CodeMismatchedChecksum:
		return "MismatchedChecksum"
	case CodeSpectatorTooFarBehind:
		return "SpectatorTooFarBehind"
	case CodeInvalidFrame:
		return "InvalidFrame"
	case CodeInvalidPlayerHandle:
		return "InvalidPlayerHandle"
	case CodeMissingInput:
		return "MissingInput"
	case CodeSerializationError:
		return "SerializationError"
	case CodeInternalError:
		return "InternalError"
	case CodeSocketError:
		return "SocketError"
	default:
		return "Unknown"
	}
}

// Error is the core's single error type. All of its fields are optional
// extra context; Code is always set and is what the host should switch on.
type Error struct {
	Code    Code
	Frame   Frame  // set for MismatchedChecksum, InvalidFrame
	Info    string // set for InvalidRequest, SerializationError, InternalError
	Local   uint64 // set for MismatchedChecksum: our checksum
	Remote  uint64 // set for MismatchedChecksum: the peer's checksum
	Handle  PlayerHandle
	wrapped error
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeInvalidRequest:
		return fmt.Sprintf("rollback: invalid request: %s", e.Info)
	case CodeMismatchedChecksum:
		return fmt.Sprintf("rollback: mismatched checksum at frame %s: local=%#x remote=%#x", e.Frame, e.Local, e.Remote)
	case CodeInvalidFrame:
		return fmt.Sprintf("rollback: invalid frame %s", e.Frame)
	case CodeInvalidPlayerHandle:
		return fmt.Sprintf("rollback: invalid player handle %d", e.Handle)
	case CodeSerializationError:
		return fmt.Sprintf("rollback: serialization error: %s", e.Info)
	case CodeInternalError:
		return fmt.Sprintf("rollback: internal error: %s", e.Info)
	default:
		return fmt.Sprintf("rollback: %s", e.Code)
	}
}

// Unwrap supports errors.Is/errors.As against a wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// New builds a bare Error of the given code.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Newf builds an Error carrying a free-form info string (InvalidRequest,
// SerializationError, InternalError).
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Info: fmt.Sprintf(format, args...)}
}

// WithFrame returns a copy of e with Frame set.
func (e *Error) WithFrame(f Frame) *Error {
	cp := *e
	cp.Frame = f
	return &cp
}

// WithHandle returns a copy of e with Handle set.
func (e *Error) WithHandle(h PlayerHandle) *Error {
	cp := *e
	cp.Handle = h
	return &cp
}

// Mismatch builds a CodeMismatchedChecksum error.
func Mismatch(frame Frame, local, remote uint64) *Error {
	return &Error{Code: CodeMismatchedChecksum, Frame: frame, Local: local, Remote: remote}
}
