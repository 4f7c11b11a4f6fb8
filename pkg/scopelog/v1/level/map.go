package level

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
)

// nameSeparators delimit the segments of a hierarchical logger name. Dots
// separate type names from their package, slashes separate Go import paths.
const nameSeparators = "./"

// Map associates hierarchical logger-name prefixes with a minimum level and
// falls back to a default level for unmatched names. A Map is immutable.
type Map struct {
	levels       map[string]Level
	defaultLevel Level
}

var emptyMap = &Map{levels: map[string]Level{}, defaultLevel: Off}

// EmptyMap returns the shared map with no entries and an Off default. It is the
// identity element for Merge.
func EmptyMap() *Map {
	return emptyMap
}

// Create builds a Map from a name-to-level mapping and a default level. The
// mapping is copied so later changes to it do not affect the returned Map.
func Create(levels map[string]Level, defaultLevel Level) *Map {
	for name := range levels {
		mustBeValidName(name)
	}
	if len(levels) == 0 && defaultLevel == Off {
		return emptyMap
	}
	return &Map{levels: maps.Clone(levels), defaultLevel: defaultLevel}
}

// GetLevel returns the level registered for the longest prefix of name that
// ends on a segment boundary, or the default level when nothing matches.
// Registering "com.example.foo" matches "com.example.foo" and
// "com.example.foo.Bar" but never "com.example.foobar".
func (m *Map) GetLevel(name string) Level {
	if m == nil {
		return Off
	}
	for n := name; n != ""; {
		if lvl, ok := m.levels[n]; ok {
			return lvl
		}
		idx := strings.LastIndexAny(n, nameSeparators)
		if idx <= 0 {
			break
		}
		n = n[:idx]
	}
	return m.defaultLevel
}

// DefaultLevel returns the level applied to names with no registered prefix.
func (m *Map) DefaultLevel() Level {
	return m.defaultLevel
}

// Len reports the number of registered prefixes.
func (m *Map) Len() int {
	return len(m.levels)
}

// IsEmpty reports whether the map can never force logging.
func (m *Map) IsEmpty() bool {
	return m == nil || (len(m.levels) == 0 && m.defaultLevel == Off)
}

// Merge returns a map whose lookup for any name yields the more verbose of the
// two receivers' results. Registrations of both maps are overlaid and each is
// re-evaluated against both sources, since specificity and defaults interact.
func (m *Map) Merge(other *Map) *Map {
	if other.IsEmpty() {
		return m
	}
	if m.IsEmpty() {
		return other
	}
	merged := make(map[string]Level, len(m.levels)+len(other.levels))
	for name := range m.levels {
		merged[name] = min(m.GetLevel(name), other.GetLevel(name))
	}
	for name := range other.levels {
		merged[name] = min(m.GetLevel(name), other.GetLevel(name))
	}
	return &Map{levels: merged, defaultLevel: min(m.defaultLevel, other.defaultLevel)}
}

// String renders the map with its entries in name order.
func (m *Map) String() string {
	if m == nil {
		return "{default=OFF}"
	}
	var sb strings.Builder
	sb.WriteString("{")
	for _, name := range slices.Sorted(maps.Keys(m.levels)) {
		fmt.Fprintf(&sb, "%s=%s, ", name, m.levels[name])
	}
	fmt.Fprintf(&sb, "default=%s}", m.defaultLevel)
	return sb.String()
}

// MapBuilder accumulates registrations for a Map. Names derived from Go types
// are resolved when Build is called.
type MapBuilder struct {
	levels       map[string]Level
	types        []typeEntry
	defaultLevel Level
}

type typeEntry struct {
	level Level
	typ   reflect.Type
	pkg   bool
}

// NewMapBuilder returns a builder whose default level is Off.
func NewMapBuilder() *MapBuilder {
	return &MapBuilder{levels: make(map[string]Level), defaultLevel: Off}
}

// Add registers level for each of the given logger names.
// It panics with a ValidationError when a name is empty or malformed.
func (b *MapBuilder) Add(lvl Level, names ...string) *MapBuilder {
	for _, name := range names {
		mustBeValidName(name)
		b.levels[name] = lvl
	}
	return b
}

// AddType registers level for the qualified names of the given types
// (import path, a dot, then the type name).
func (b *MapBuilder) AddType(lvl Level, types ...reflect.Type) *MapBuilder {
	for _, t := range types {
		if t == nil {
			panic(slerrors.NewValidationError("type cannot be nil", nil))
		}
		b.types = append(b.types, typeEntry{level: lvl, typ: t})
	}
	return b
}

// AddPackageOf registers level for the import path of the package declaring
// the dynamic type of each value.
func (b *MapBuilder) AddPackageOf(lvl Level, values ...any) *MapBuilder {
	for _, v := range values {
		if v == nil {
			panic(slerrors.NewValidationError("value cannot be nil", nil))
		}
		b.types = append(b.types, typeEntry{level: lvl, typ: reflect.TypeOf(v), pkg: true})
	}
	return b
}

// SetDefault sets the level used for names with no registered prefix.
func (b *MapBuilder) SetDefault(lvl Level) *MapBuilder {
	b.defaultLevel = lvl
	return b
}

// Build resolves type registrations and returns the immutable Map.
func (b *MapBuilder) Build() *Map {
	levels := maps.Clone(b.levels)
	for _, entry := range b.types {
		t := entry.typ
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		name := t.PkgPath()
		if !entry.pkg && t.Name() != "" {
			name = name + "." + t.Name()
		}
		if name == "" {
			panic(slerrors.NewValidationError(fmt.Sprintf("type %s has no qualified name", entry.typ), nil))
		}
		levels[name] = entry.level
	}
	return Create(levels, b.defaultLevel)
}

func mustBeValidName(name string) {
	if name == "" || strings.ContainsAny(name[:1], nameSeparators) || strings.ContainsAny(name[len(name)-1:], nameSeparators) {
		panic(slerrors.NewValidationError(fmt.Sprintf("invalid logger name '%s'", name), nil))
	}
}
