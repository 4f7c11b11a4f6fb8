// Package level defines the log levels understood by scopelog and the
// LogLevelMap used by scopes to force logging for selected logger names.
package level

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
)

// Level is a log severity. Levels are ordered so that a lower value is more
// verbose; the numeric values line up with slog so a Level converts to a
// slog.Level without a lookup table.
type Level int

const (
	Finest  Level = -12
	Finer   Level = -8
	Fine    Level = Level(slog.LevelDebug)
	Config  Level = -2
	Info    Level = Level(slog.LevelInfo)
	Warning Level = Level(slog.LevelWarn)
	Severe  Level = Level(slog.LevelError)
	// Off disables logging when used as a threshold.
	Off Level = math.MaxInt32
)

var levelNames = map[Level]string{
	Finest:  "FINEST",
	Finer:   "FINER",
	Fine:    "FINE",
	Config:  "CONFIG",
	Info:    "INFO",
	Warning: "WARNING",
	Severe:  "SEVERE",
	Off:     "OFF",
}

// aliases accepted by Parse in addition to the canonical names.
var levelAliases = map[string]Level{
	"TRACE": Finest,
	"DEBUG": Fine,
	"WARN":  Warning,
	"ERROR": Severe,
}

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Slog converts the level to its slog equivalent.
func (l Level) Slog() slog.Level {
	return slog.Level(l)
}

// FromSlog converts a slog.Level into a Level.
func FromSlog(l slog.Level) Level {
	return Level(l)
}

// Parse converts a level name (case-insensitive) into a Level. Both the
// canonical names (FINE, WARNING, ...) and common aliases (debug, warn,
// error, trace) are accepted.
func Parse(name string) (Level, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for lvl, n := range levelNames {
		if n == upper {
			return lvl, nil
		}
	}
	if lvl, ok := levelAliases[upper]; ok {
		return lvl, nil
	}
	return Off, slerrors.NewValidationError(fmt.Sprintf("unknown log level '%s'", name), nil)
}
