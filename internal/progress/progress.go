// Package progress defines the human-facing progress events emitted by
// refresh cycles and downloads.
package progress

// Level indicates the severity/type of a progress message.
type Level int

const (
	LevelInfo Level = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

func (l Level) String() string {
	switch l {
	case LevelVerbose:
		return "verbose"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelSuccess:
		return "success"
	default:
		return "info"
	}
}

// Event represents a progress update.
type Event struct {
	Message string
	Level   Level
}

// Func receives progress events. A nil Func drops them.
type Func func(Event)

// Send delivers an event if f is set.
func (f Func) Send(message string, level Level) {
	if f != nil {
		f(Event{Message: message, Level: level})
	}
}
