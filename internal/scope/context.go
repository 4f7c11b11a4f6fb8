package scope

import (
	"context"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// CurrentTags returns the tags visible in ctx.
func CurrentTags(ctx context.Context) *tags.Tags { return stateOf(ctx).tags }

// CurrentMetadata returns the scope metadata visible in ctx.
func CurrentMetadata(ctx context.Context) *metadata.Scope { return stateOf(ctx).metadata }

// CurrentLevelMap returns the log level map in force in ctx.
func CurrentLevelMap(ctx context.Context) *level.Map { return stateOf(ctx).levels }

// Lookup returns the LoggingScope bound to t in ctx or an enclosing scope.
func Lookup(ctx context.Context, t *Type) (*LoggingScope, bool) {
	s := stateOf(ctx).bindings.lookup(t)
	return s, s != nil
}

// ShouldForceLogging reports whether the level map in force in ctx enables
// lvl for the logger called name, regardless of the logger's own level.
func ShouldForceLogging(ctx context.Context, name string, lvl level.Level) bool {
	levels := stateOf(ctx).levels
	if levels.IsEmpty() {
		return false
	}
	return lvl >= levels.GetLevel(name)
}

// AddTags merges t into the innermost open scope of ctx. Scopes nested in it
// that are already installed are unaffected. It reports false when ctx has
// no open scope.
func AddTags(ctx context.Context, t *tags.Tags) bool {
	f := openFrame(ctx)
	if f == nil {
		return false
	}
	if t.IsEmpty() {
		return true
	}
	f.update(func(s *state) *state {
		next := *s
		next.tags = s.tags.Merge(t)
		return &next
	})
	return true
}

// AddMetadata appends a metadata entry to the innermost open scope of ctx.
// It reports false when ctx has no open scope.
func AddMetadata(ctx context.Context, key *metadata.Key, value any) bool {
	f := openFrame(ctx)
	if f == nil {
		return false
	}
	entry := metadata.Singleton(key, value)
	f.update(func(s *state) *state {
		next := *s
		next.metadata = s.metadata.Concatenate(entry)
		return &next
	})
	return true
}

// ApplyLogLevelMap merges m into the level map of the innermost open scope
// of ctx. It reports false when ctx has no open scope.
func ApplyLogLevelMap(ctx context.Context, m *level.Map) bool {
	f := openFrame(ctx)
	if f == nil {
		return false
	}
	f.update(func(s *state) *state {
		next := *s
		next.levels = s.levels.Merge(m)
		return &next
	})
	return true
}

// Snapshot is the ambient state of a scope, frozen for handoff to another
// unit of work. A Snapshot is immutable and safe for concurrent use.
type Snapshot struct {
	state *state
}

// Capture freezes the state visible in ctx.
func Capture(ctx context.Context) Snapshot {
	return Snapshot{state: stateOf(ctx)}
}

// Tags returns the tags of the snapshot.
func (s Snapshot) Tags() *tags.Tags { return s.get().tags }

func (s Snapshot) get() *state {
	if s.state == nil {
		return rootState
	}
	return s.state
}

// Attach returns a context carrying snap as a new, detached scope. The scope
// has no parent to report to, so it is never closed; additions made through
// it stay local to the successor.
func Attach(ctx context.Context, snap Snapshot) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, frameKey{}, newFrame(nil, snap.get()))
}
