package metadata

// Mutable is the metadata of a single log statement while it is being built.
// Adding a non-repeated key replaces its previous value in place; repeated
// keys append. A Mutable belongs to one statement and is not safe for
// concurrent use.
type Mutable struct {
	entries []entry
}

// NewMutable returns an empty Mutable with room for a few entries.
func NewMutable() *Mutable {
	return &Mutable{entries: make([]entry, 0, 4)}
}

// Add records value under key.
func (m *Mutable) Add(key *Key, value any) {
	checkEntry(key, value)
	if !key.repeated {
		for i := range m.entries {
			if m.entries[i].key == key {
				m.entries[i].value = value
				return
			}
		}
	}
	m.entries = append(m.entries, entry{key: key, value: value})
}

// Remove deletes every entry for key.
func (m *Mutable) Remove(key *Key) {
	kept := m.entries[:0]
	for _, e := range m.entries {
		if e.key != key {
			kept = append(kept, e)
		}
	}
	m.entries = kept
}

func (m *Mutable) Size() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

func (m *Mutable) KeyAt(i int) *Key       { return m.entries[i].key }
func (m *Mutable) ValueAt(i int) any      { return m.entries[i].value }
func (m *Mutable) FindValue(key *Key) any { return findLast(m, key) }

// FindAll returns every value stored under key, in insertion order.
func (m *Mutable) FindAll(key *Key) []any {
	return findAll(m, key)
}

func (m *Mutable) String() string {
	return render(m)
}
