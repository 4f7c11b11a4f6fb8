package tags

import (
	"fmt"
	"slices"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
)

// Builder accumulates tags before they are frozen into an immutable Tags.
// Every Add method validates its input immediately and panics with a
// ValidationError, so the failing call is the one that reports the fault.
// A Builder is not safe for concurrent use.
type Builder struct {
	values map[string][]Value
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{values: make(map[string][]Value)}
}

// Add records a bare tag with no values.
func (b *Builder) Add(name string) *Builder {
	mustValidateName(name)
	if _, ok := b.values[name]; !ok {
		b.values[name] = nil
	}
	return b
}

func (b *Builder) AddString(name, value string) *Builder    { return b.add(name, StringValue(value)) }
func (b *Builder) AddBool(name string, value bool) *Builder { return b.add(name, BoolValue(value)) }
func (b *Builder) AddInt(name string, value int64) *Builder { return b.add(name, IntValue(value)) }
func (b *Builder) AddFloat(name string, value float64) *Builder {
	return b.add(name, FloatValue(value))
}

// AddValue records a value of any supported Go type. Integer and float types
// of every width are widened to int64 and float64.
func (b *Builder) AddValue(name string, value any) *Builder {
	switch v := value.(type) {
	case bool:
		return b.AddBool(name, v)
	case string:
		return b.AddString(name, v)
	case int:
		return b.AddInt(name, int64(v))
	case int8:
		return b.AddInt(name, int64(v))
	case int16:
		return b.AddInt(name, int64(v))
	case int32:
		return b.AddInt(name, int64(v))
	case int64:
		return b.AddInt(name, v)
	case uint8:
		return b.AddInt(name, int64(v))
	case uint16:
		return b.AddInt(name, int64(v))
	case uint32:
		return b.AddInt(name, int64(v))
	case float32:
		return b.AddFloat(name, float64(v))
	case float64:
		return b.AddFloat(name, v)
	case Value:
		return b.add(name, v)
	default:
		panic(slerrors.NewValidationError(fmt.Sprintf("unsupported value type %T for tag '%s'", value, name), nil))
	}
}

func (b *Builder) add(name string, v Value) *Builder {
	mustValidateName(name)
	vals := b.values[name]
	idx, found := slices.BinarySearchFunc(vals, v, Compare)
	if !found {
		vals = slices.Insert(vals, idx, v)
	}
	b.values[name] = vals
	return b
}

// Build returns the immutable Tags. The builder may keep being used; later
// additions do not affect Tags already built.
func (b *Builder) Build() *Tags {
	frozen := make(map[string][]Value, len(b.values))
	for name, vals := range b.values {
		frozen[name] = slices.Clip(slices.Clone(vals))
	}
	return newTags(frozen)
}
