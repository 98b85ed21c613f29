package linhash

// ErrCode is the small error taxonomy surfaced by every table operation,
// per spec.md §6/§7. None of these trigger retries inside the package;
// callers decide what to do with them.
type ErrCode int

const (
	// NONE is never returned as an error; it exists so ErrCode has a
	// documented zero value distinct from "no error occurred".
	NONE ErrCode = iota
	// BADITEM is returned when a tuple position argument is out of range.
	BADITEM
	// BADKEY is returned on a key clash: Insert on a SET-unique table,
	// or InsertOrFail on any table.
	BADKEY
	// BADPARAM is returned for a malformed pattern, continuation, or
	// other caller-supplied argument.
	BADPARAM
	// SYSRES is returned when a match-program would exceed a
	// compilation resource limit.
	SYSRES
	// UNSPEC is an assertion-backed logic error that should never
	// occur in practice.
	UNSPEC
)

func (c ErrCode) String() string {
	switch c {
	case NONE:
		return "NONE"
	case BADITEM:
		return "BADITEM"
	case BADKEY:
		return "BADKEY"
	case BADPARAM:
		return "BADPARAM"
	case SYSRES:
		return "SYSRES"
	case UNSPEC:
		return "UNSPEC"
	default:
		return "UNKNOWN"
	}
}

// Error wraps an ErrCode with a human-readable message. It implements
// the standard error interface so callers can use errors.Is/As against
// the sentinel values below.
type Error struct {
	Code ErrCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.Msg
}

// Is lets errors.Is(err, linhash.ErrBadKey) match any *Error with the
// same code, independent of message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrCode, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Sentinel errors for errors.Is comparisons; their Msg is irrelevant to
// matching (see Error.Is).
var (
	ErrBadItem  = &Error{Code: BADITEM}
	ErrBadKey   = &Error{Code: BADKEY}
	ErrBadParam = &Error{Code: BADPARAM}
	ErrSysRes   = &Error{Code: SYSRES}
	ErrUnspec   = &Error{Code: UNSPEC}
)
