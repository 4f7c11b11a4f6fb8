package config

import (
	"sort"
	"strings"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// LevelMap builds the root log level map. A document without levels yields
// the empty map, which forces nothing.
func (c *Config) LevelMap() *level.Map {
	if c.Levels == nil {
		return level.EmptyMap()
	}
	b := level.NewMapBuilder()
	if c.Levels.Default != "" {
		if lvl, err := level.Parse(c.Levels.Default); err == nil {
			b.SetDefault(lvl)
		}
	}
	for name, raw := range c.Levels.Loggers {
		if lvl, err := level.Parse(raw); err == nil {
			b.Add(lvl, name)
		}
	}
	return b.Build()
}

// RootTags builds the tags attached to every statement.
func (c *Config) RootTags() *tags.Tags {
	if len(c.Tags) == 0 {
		return tags.Empty()
	}
	names := make([]string, 0, len(c.Tags))
	for name := range c.Tags {
		names = append(names, name)
	}
	sort.Strings(names)

	b := tags.NewBuilder()
	for _, name := range names {
		switch v := c.Tags[name].(type) {
		case nil:
			b.Add(name)
		case []any:
			for _, item := range v {
				b.AddValue(name, item)
			}
		default:
			b.AddValue(name, v)
		}
	}
	return b.Build()
}

// RedactKeywords returns the lower-cased tracing.redact entries as a set.
func (c *Config) RedactKeywords() map[string]struct{} {
	if len(c.Tracing.Redact) == 0 {
		return nil
	}
	keywords := make(map[string]struct{}, len(c.Tracing.Redact))
	for _, k := range c.Tracing.Redact {
		keywords[strings.ToLower(strings.TrimSpace(k))] = struct{}{}
	}
	return keywords
}
