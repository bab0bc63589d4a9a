package errkind

import "errors"

// Kind classifies a terminal failure of the telemetry flow.
type Kind int

const (
	// KindUnknown is reported for errors that were never classified.
	KindUnknown Kind = iota
	// KindConfiguration means the device environment is not in the expected shape.
	KindConfiguration
	// KindDependency means a collaborator (identity service, key service, broker) failed.
	KindDependency
	// KindProtocol means a collaborator answered with an unexpected response shape.
	KindProtocol
)

// String returns the human readable name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindDependency:
		return "dependency"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is a classified failure carrying a description and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Sentinels usable with errors.Is to test the kind of a wrapped error.
var (
	ErrConfiguration = &Error{Kind: KindConfiguration}
	ErrDependency    = &Error{Kind: KindDependency}
	ErrProtocol      = &Error{Kind: KindProtocol}
)

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels. Two fully populated errors never match each other.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Msg != "" || t.Err != nil {
		return false
	}
	return t.Kind == e.Kind
}

// Configuration returns a configuration failure with the given description.
func Configuration(msg string) error {
	return &Error{Kind: KindConfiguration, Msg: msg}
}

// Dependency wraps the failure of a collaborator.
func Dependency(msg string, err error) error {
	return &Error{Kind: KindDependency, Msg: msg, Err: err}
}

// Protocol wraps an unexpected response shape from a collaborator.
func Protocol(msg string, err error) error {
	return &Error{Kind: KindProtocol, Msg: msg, Err: err}
}

// KindOf reports the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCode maps err to the process exit status.
// Dependency failures exit with 2 so that supervisors can tell them apart from a misconfigured device.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if KindOf(err) == KindDependency {
		return 2
	}
	return 1
}
