package metadata

import (
	"fmt"
	"strings"

	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
)

type entry struct {
	key   *Key
	value any
}

// Scope is the immutable metadata attached to a logging scope. Entries keep
// their insertion order and are never de-duplicated.
type Scope struct {
	entries []entry
}

var none = &Scope{}

// None returns the shared empty Scope.
func None() *Scope {
	return none
}

// Singleton returns a Scope holding exactly one entry.
func Singleton(key *Key, value any) *Scope {
	checkEntry(key, value)
	return &Scope{entries: []entry{{key: key, value: value}}}
}

// Size returns the number of entries.
func (s *Scope) Size() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

func (s *Scope) KeyAt(i int) *Key       { return s.entries[i].key }
func (s *Scope) ValueAt(i int) any      { return s.entries[i].value }
func (s *Scope) FindValue(key *Key) any { return findLast(s, key) }

// FindAll returns every value stored under key, in insertion order.
func (s *Scope) FindAll(key *Key) []any {
	return findAll(s, key)
}

// Concatenate returns a Scope holding the receiver's entries followed by
// other's. Empty operands are identities: the other operand is returned as is.
func (s *Scope) Concatenate(other *Scope) *Scope {
	if other.Size() == 0 {
		if s == nil {
			return none
		}
		return s
	}
	if s.Size() == 0 {
		return other
	}
	joined := make([]entry, 0, len(s.entries)+len(other.entries))
	joined = append(joined, s.entries...)
	joined = append(joined, other.entries...)
	return &Scope{entries: joined}
}

func (s *Scope) String() string {
	return render(s)
}

// ScopeBuilder accumulates entries in call order.
type ScopeBuilder struct {
	entries []entry
}

// NewBuilder returns an empty ScopeBuilder.
func NewBuilder() *ScopeBuilder {
	return &ScopeBuilder{}
}

// Add appends an entry. It panics with a ValidationError for a nil key or value.
func (b *ScopeBuilder) Add(key *Key, value any) *ScopeBuilder {
	checkEntry(key, value)
	b.entries = append(b.entries, entry{key: key, value: value})
	return b
}

// Build returns the immutable Scope.
func (b *ScopeBuilder) Build() *Scope {
	if len(b.entries) == 0 {
		return none
	}
	return &Scope{entries: append([]entry(nil), b.entries...)}
}

func checkEntry(key *Key, value any) {
	if key == nil {
		panic(slerrors.NewValidationError("metadata key cannot be nil", nil))
	}
	if value == nil {
		panic(slerrors.NewValidationError(fmt.Sprintf("metadata value for key '%s' cannot be nil", key.label), nil))
	}
}

func render(m Metadata) string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.Size(); i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", m.KeyAt(i).label, m.ValueAt(i))
	}
	sb.WriteString("]")
	return sb.String()
}

var (
	_ Metadata = (*Scope)(nil)
	_ Metadata = (*Mutable)(nil)
)
