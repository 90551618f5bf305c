package attendance

import "errors"

// Reasons a clock action was refused. They travel inside a Notice rather
// than as a returned error because the record is left untouched.
var (
	ErrNoProject         = errors.New("no project selected")
	ErrAlreadyClockedIn  = errors.New("already clocked in")
	ErrNotClockedIn      = errors.New("not clocked in")
	ErrAlreadyClockedOut = errors.New("already clocked out")
	ErrUnknownProject    = errors.New("unknown project")
	ErrInactiveProject   = errors.New("project is not active")
	ErrInvalidModality   = errors.New("invalid modality")
)

type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "unknown"
}

// Notice is the user-facing outcome of an attendance action.
type Notice struct {
	Level   Level
	Message string
	Reason  error
}

func (n Notice) OK() bool {
	return n.Reason == nil
}

func success(msg string) Notice {
	return Notice{Level: LevelSuccess, Message: msg}
}

func refused(level Level, reason error, msg string) Notice {
	return Notice{Level: level, Message: msg, Reason: reason}
}
