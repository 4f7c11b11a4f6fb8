package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// ValidateStructure checks the rules the JSON schema cannot express. It
// returns every violation found.
func ValidateStructure(cfg *Config) []error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, slerrors.NewValidationError(fmt.Sprintf(format, args...), nil))
	}

	if cfg.Backend.Level != "" {
		if _, err := level.Parse(cfg.Backend.Level); err != nil {
			invalid("backend.level: %v", err)
		}
	}
	switch strings.ToLower(cfg.Backend.Format) {
	case "", FormatText, FormatJSON:
	default:
		invalid("backend.format: unsupported format '%s'", cfg.Backend.Format)
	}
	if cfg.Backend.EventBuffer < 0 {
		invalid("backend.event_buffer cannot be negative")
	}

	if cfg.Levels != nil {
		if cfg.Levels.Default != "" {
			if _, err := level.Parse(cfg.Levels.Default); err != nil {
				invalid("levels.default: %v", err)
			}
		}
		for name, lvl := range cfg.Levels.Loggers {
			if !validLoggerName(name) {
				invalid("levels.loggers: invalid logger name '%s'", name)
			}
			if _, err := level.Parse(lvl); err != nil {
				invalid("levels.loggers[%s]: %v", name, err)
			}
		}
	}

	for name, value := range cfg.Tags {
		if err := tags.ValidateName(name); err != nil {
			invalid("tags: %v", err)
			continue
		}
		if !validTagValue(value) {
			invalid("tags[%s]: unsupported value of type %T", name, value)
		}
	}

	if p := cfg.RateLimit; p != nil {
		if p.Every < 0 {
			invalid("rate_limit.every cannot be negative")
		}
		if p.SampleEvery < 0 {
			invalid("rate_limit.sample_every cannot be negative")
		}
		if p.AtMostEvery != "" {
			d, err := time.ParseDuration(p.AtMostEvery)
			switch {
			case err != nil:
				invalid("rate_limit.at_most_every: invalid duration '%s'", p.AtMostEvery)
			case d < 0:
				invalid("rate_limit.at_most_every cannot be negative")
			}
		}
	}

	for i, keyword := range cfg.Tracing.Redact {
		if strings.TrimSpace(keyword) == "" {
			invalid("tracing.redact[%d] cannot be empty", i)
		}
	}
	return errs
}

// validLoggerName rejects names the level map builder would refuse.
func validLoggerName(name string) bool {
	if name == "" {
		return false
	}
	first, last := name[0], name[len(name)-1]
	return !strings.ContainsRune("./", rune(first)) && !strings.ContainsRune("./", rune(last))
}

func validTagValue(value any) bool {
	switch v := value.(type) {
	case nil, string, bool, int, int64:
		return true
	case float64:
		return !math.IsNaN(v)
	case []any:
		for _, item := range v {
			if item == nil || !validTagValue(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
