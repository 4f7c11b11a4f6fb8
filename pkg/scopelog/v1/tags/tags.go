// Package tags implements Tags, the immutable multi-map of named, typed values
// that scopes attach to every log statement executed within them.
package tags

import (
	"cmp"
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Pre-compiled regex for validating tag names: alphanumeric plus underscore, dot and hyphen.
var tagNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Kind identifies the type of a tag value. Kinds are declared in their sort order.
type Kind int

const (
	KindBool Kind = iota
	KindString
	KindInt
	KindFloat
)

// Value is a single typed tag value. Values are comparable and totally ordered:
// booleans sort before strings, strings before integers, integers before floats,
// and values of the same kind sort naturally.
type Value struct {
	kind Kind
	b    bool
	s    string
	i    int64
	f    float64
}

func BoolValue(v bool) Value     { return Value{kind: KindBool, b: v} }
func StringValue(v string) Value { return Value{kind: KindString, s: v} }
func IntValue(v int64) Value     { return Value{kind: KindInt, i: v} }

// FloatValue panics with a ValidationError for NaN, which has no place in a total order.
func FloatValue(v float64) Value {
	if math.IsNaN(v) {
		panic(slerrors.NewValidationError("tag value cannot be NaN", nil))
	}
	return Value{kind: KindFloat, f: v}
}

// Kind returns the type of the value.
func (v Value) Kind() Kind { return v.kind }

// Any returns the value as a bool, string, int64 or float64.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindString:
		return v.s
	case KindInt:
		return v.i
	default:
		return v.f
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	default:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	}
}

// Compare orders two values by kind first, then naturally within a kind.
func Compare(a, b Value) int {
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	switch a.kind {
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindInt:
		return cmp.Compare(a.i, b.i)
	default:
		return cmp.Compare(a.f, b.f)
	}
}

// Tags is an immutable mapping from tag name to a sorted, de-duplicated set
// of values. A name may map to an empty set, which marks a bare tag.
type Tags struct {
	names  []string
	values map[string][]Value
}

var empty = &Tags{values: map[string][]Value{}}

// Empty returns the shared Tags instance with no entries.
func Empty() *Tags {
	return empty
}

// Of returns Tags holding a single tag. value may be nil for a bare tag or a
// bool, string, integer or float; other types panic with a ValidationError.
func Of(name string, value any) *Tags {
	b := NewBuilder()
	if value == nil {
		b.Add(name)
	} else {
		b.AddValue(name, value)
	}
	return b.Build()
}

// IsEmpty reports whether the receiver has no tags.
func (t *Tags) IsEmpty() bool {
	return t == nil || len(t.names) == 0
}

// Len returns the number of distinct tag names.
func (t *Tags) Len() int {
	if t == nil {
		return 0
	}
	return len(t.names)
}

// Names returns the tag names in lexical order.
func (t *Tags) Names() []string {
	if t == nil {
		return nil
	}
	return slices.Clone(t.names)
}

// Values returns the sorted values of a tag and whether the tag is present.
func (t *Tags) Values(name string) ([]Value, bool) {
	if t == nil {
		return nil, false
	}
	vals, ok := t.values[name]
	return slices.Clone(vals), ok
}

// AsMap returns a fresh view of the tags as name to sorted plain values.
func (t *Tags) AsMap() map[string][]any {
	out := make(map[string][]any, t.Len())
	if t == nil {
		return out
	}
	for name, vals := range t.values {
		plain := make([]any, len(vals))
		for i, v := range vals {
			plain[i] = v.Any()
		}
		out[name] = plain
	}
	return out
}

// Merge returns the union of two tag sets. The receiver is returned unchanged
// when other is empty, and other when the receiver is empty.
func (t *Tags) Merge(other *Tags) *Tags {
	if other.IsEmpty() {
		if t == nil {
			return empty
		}
		return t
	}
	if t.IsEmpty() {
		return other
	}
	merged := make(map[string][]Value, len(t.values)+len(other.values))
	maps.Copy(merged, t.values)
	for name, vals := range other.values {
		existing, ok := merged[name]
		if !ok {
			merged[name] = vals
			continue
		}
		merged[name] = unionSorted(existing, vals)
	}
	return newTags(merged)
}

// String renders the tags as {name=[v1, v2], bare=[]} in serialization order.
func (t *Tags) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for i, name := range t.Names() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(name)
		sb.WriteString("=[")
		for j, v := range t.values[name] {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("}")
	return sb.String()
}

// Attributes converts the tags into OpenTelemetry attributes. A tag with a
// single value becomes a scalar attribute, a bare tag becomes a true boolean
// and a multi-valued tag becomes a string slice of its rendered values.
func (t *Tags) Attributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, t.Len())
	for _, name := range t.Names() {
		vals := t.values[name]
		switch len(vals) {
		case 0:
			attrs = append(attrs, attribute.Bool(name, true))
		case 1:
			attrs = append(attrs, scalarAttribute(name, vals[0]))
		default:
			rendered := make([]string, len(vals))
			for i, v := range vals {
				rendered[i] = v.String()
			}
			attrs = append(attrs, attribute.StringSlice(name, rendered))
		}
	}
	return attrs
}

func scalarAttribute(name string, v Value) attribute.KeyValue {
	switch v.kind {
	case KindBool:
		return attribute.Bool(name, v.b)
	case KindString:
		return attribute.String(name, v.s)
	case KindInt:
		return attribute.Int64(name, v.i)
	default:
		return attribute.Float64(name, v.f)
	}
}

func newTags(values map[string][]Value) *Tags {
	if len(values) == 0 {
		return empty
	}
	return &Tags{names: slices.Sorted(maps.Keys(values)), values: values}
}

func unionSorted(a, b []Value) []Value {
	out := make([]Value, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := Compare(a[i], b[j]); {
		case c < 0:
			out = append(out, a[i])
			i++
		case c > 0:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// ValidateName returns a ValidationError if name is not a valid tag name.
func ValidateName(name string) error {
	if !tagNameRegex.MatchString(name) {
		return slerrors.NewValidationError(fmt.Sprintf("invalid tag name '%s' (allowed: alphanumeric, underscore, dot, hyphen)", name), nil)
	}
	return nil
}

func mustValidateName(name string) {
	if err := ValidateName(name); err != nil {
		panic(err)
	}
}
