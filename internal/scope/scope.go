// Package scope carries the nested logging context of a unit of work: the
// tags, metadata, log level map and scope-type bindings visible to every log
// statement executed inside it.
//
// Scopes travel in a context.Context. Installing a scope derives a child
// context whose state is the parent's state augmented with the scope's own
// additions; the parent context is never modified, so leaving a scope
// restores the enclosing state exactly.
package scope

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	slerrors "github.com/gxo-labs/scopelog/pkg/scopelog/v1/errors"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// Type identifies a kind of scope, such as "request" or "batch". Types are
// compared by identity.
type Type struct {
	name string
}

// NewType returns a new scope type. Two calls with the same name yield
// distinct types.
func NewType(name string) *Type {
	if name == "" {
		panic(slerrors.NewValidationError("scope type name cannot be empty", nil))
	}
	return &Type{name: name}
}

func (t *Type) String() string { return t.name }

// LoggingScope is the instance bound to a Type within a chain of nested
// scopes. Rate limits keyed "per scope" are partitioned by LoggingScope.
type LoggingScope struct {
	id  uuid.UUID
	typ *Type

	mu      sync.Mutex
	closed  bool
	onClose map[any]func()
}

func newLoggingScope(t *Type) *LoggingScope {
	return &LoggingScope{id: uuid.New(), typ: t}
}

func (s *LoggingScope) ID() uuid.UUID { return s.id }
func (s *LoggingScope) Type() *Type   { return s.typ }

func (s *LoggingScope) String() string {
	return fmt.Sprintf("%s:%s", s.typ, s.id)
}

// OnClose registers fn to run once when the scope that created s closes.
// Registrations under an equal key collapse into the first one; key must be
// comparable. If s is already closed, fn runs immediately.
func (s *LoggingScope) OnClose(key any, fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn()
		return
	}
	if _, ok := s.onClose[key]; !ok {
		if s.onClose == nil {
			s.onClose = make(map[any]func())
		}
		s.onClose[key] = fn
	}
	s.mu.Unlock()
}

// Closed reports whether the scope that created s has closed.
func (s *LoggingScope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *LoggingScope) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	hooks := s.onClose
	s.onClose = nil
	s.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// binding links a Type to its LoggingScope. Bindings form a chain toward
// the outermost scope.
type binding struct {
	typ    *Type
	scope  *LoggingScope
	parent *binding
}

func (b *binding) lookup(t *Type) *LoggingScope {
	for ; b != nil; b = b.parent {
		if b.typ == t {
			return b.scope
		}
	}
	return nil
}

// state is the immutable ambient state of a scope. Mutations publish a
// new state.
type state struct {
	tags     *tags.Tags
	metadata *metadata.Scope
	levels   *level.Map
	bindings *binding
}

var rootState = &state{
	tags:     tags.Empty(),
	metadata: metadata.None(),
	levels:   level.EmptyMap(),
}

// frame is an installed scope.
type frame struct {
	parent       *frame
	state        atomic.Pointer[state]
	openChildren atomic.Int32
	closed       atomic.Bool

	// owned is the LoggingScope first bound by this frame, if any.
	owned *LoggingScope
}

func newFrame(parent *frame, s *state) *frame {
	f := &frame{parent: parent}
	f.state.Store(s)
	return f
}

// update applies fn to the frame's state until the result is published.
func (f *frame) update(fn func(*state) *state) {
	for {
		old := f.state.Load()
		if f.state.CompareAndSwap(old, fn(old)) {
			return
		}
	}
}

type frameKey struct{}

func frameFrom(ctx context.Context) *frame {
	if ctx == nil {
		return nil
	}
	f, _ := ctx.Value(frameKey{}).(*frame)
	return f
}

func stateOf(ctx context.Context) *state {
	if f := frameFrom(ctx); f != nil {
		return f.state.Load()
	}
	return rootState
}

// openFrame returns the frame of ctx if it is still open.
func openFrame(ctx context.Context) *frame {
	f := frameFrom(ctx)
	if f == nil || f.closed.Load() {
		return nil
	}
	return f
}

// Builder collects the additions of a scope before it is installed.
type Builder struct {
	parent   context.Context
	tags     *tags.Tags
	metadata *metadata.Scope
	levels   *level.Map
	typ      *Type
}

// NewContext starts a scope nested in ctx. A nil ctx nests in
// context.Background.
func NewContext(ctx context.Context) *Builder {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Builder{
		parent:   ctx,
		tags:     tags.Empty(),
		metadata: metadata.None(),
		levels:   level.EmptyMap(),
	}
}

// WithTags adds t to the scope.
func (b *Builder) WithTags(t *tags.Tags) *Builder {
	b.tags = b.tags.Merge(t)
	return b
}

// WithTag adds a single tag; value follows the rules of tags.Of.
func (b *Builder) WithTag(name string, value any) *Builder {
	return b.WithTags(tags.Of(name, value))
}

// WithMetadata appends a metadata entry to the scope.
func (b *Builder) WithMetadata(key *metadata.Key, value any) *Builder {
	b.metadata = b.metadata.Concatenate(metadata.Singleton(key, value))
	return b
}

// WithLogLevelMap merges m into the levels forced by the scope.
func (b *Builder) WithLogLevelMap(m *level.Map) *Builder {
	b.levels = b.levels.Merge(m)
	return b
}

// WithType binds t in the scope. If an enclosing scope already binds t, its
// LoggingScope is reused.
func (b *Builder) WithType(t *Type) *Builder {
	if t == nil {
		panic(slerrors.NewValidationError("scope type cannot be nil", nil))
	}
	b.typ = t
	return b
}

func (b *Builder) childState(parent *state) *state {
	child := &state{
		tags:     parent.tags.Merge(b.tags),
		metadata: parent.metadata.Concatenate(b.metadata),
		levels:   parent.levels.Merge(b.levels),
		bindings: parent.bindings,
	}
	if b.typ != nil && parent.bindings.lookup(b.typ) == nil {
		child.bindings = &binding{
			typ:    b.typ,
			scope:  newLoggingScope(b.typ),
			parent: parent.bindings,
		}
	}
	return child
}

// Install publishes the scope and returns the context carrying it. The
// returned Closer must be closed when the scope's work is done.
func (b *Builder) Install() (context.Context, *Closer) {
	parent := frameFrom(b.parent)
	parentState := stateOf(b.parent)
	childState := b.childState(parentState)
	f := newFrame(parent, childState)
	if childState.bindings != parentState.bindings {
		f.owned = childState.bindings.scope
	}
	if parent != nil {
		parent.openChildren.Add(1)
	}
	return context.WithValue(b.parent, frameKey{}, f), &Closer{frame: f}
}

// Run installs the scope, calls fn with the scoped context and closes the
// scope, even if fn panics. An error returned by fn takes precedence over a
// teardown error; a teardown error alone is reported as an
// InvalidContextStateError.
func (b *Builder) Run(fn func(ctx context.Context) error) (err error) {
	ctx, closer := b.Install()
	defer func() {
		closeErr := closer.Close()
		if err == nil && closeErr != nil {
			err = slerrors.NewInvalidContextStateError(closeErr)
		}
	}()
	return fn(ctx)
}

// Call is Run for functions returning a value.
func Call[T any](b *Builder, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := b.Run(func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, err
}

// Closer tears down an installed scope.
type Closer struct {
	frame *frame
}

// Close ends the scope and runs the OnClose hooks of the LoggingScope it
// bound. It fails if the scope was already closed or if scopes nested in it
// are still open; the scope is closed regardless.
func (c *Closer) Close() error {
	f := c.frame
	if !f.closed.CompareAndSwap(false, true) {
		return fmt.Errorf("scope already closed")
	}
	if f.owned != nil {
		f.owned.close()
	}
	if f.parent != nil {
		f.parent.openChildren.Add(-1)
	}
	if open := f.openChildren.Load(); open > 0 {
		return fmt.Errorf("scope closed with %d nested scope(s) still open", open)
	}
	return nil
}
