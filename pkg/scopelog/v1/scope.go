package v1

import (
	"context"

	"github.com/gxo-labs/scopelog/internal/scope"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// Scope building blocks, re-exported so callers need a single import.
type (
	ScopeBuilder = scope.Builder
	ScopeCloser  = scope.Closer
	ScopeType    = scope.Type
	LoggingScope = scope.LoggingScope
	Snapshot     = scope.Snapshot
)

// NewContext starts a scope nested in ctx.
func NewContext(ctx context.Context) *ScopeBuilder { return scope.NewContext(ctx) }

// NewScopeType creates a scope type. Types are compared by identity.
func NewScopeType(name string) *ScopeType { return scope.NewType(name) }

// AddTags merges t into the innermost open scope of ctx. It reports false
// when ctx holds no open scope.
func AddTags(ctx context.Context, t *tags.Tags) bool { return scope.AddTags(ctx, t) }

// AddMetadata appends an entry to the innermost open scope of ctx.
func AddMetadata(ctx context.Context, key *metadata.Key, value any) bool {
	return scope.AddMetadata(ctx, key, value)
}

// ApplyLogLevelMap merges m into the levels forced by the innermost open
// scope of ctx.
func ApplyLogLevelMap(ctx context.Context, m *level.Map) bool { return scope.ApplyLogLevelMap(ctx, m) }

// Capture freezes the scope state of ctx for handoff to another goroutine.
func Capture(ctx context.Context) Snapshot { return scope.Capture(ctx) }

// Attach returns ctx carrying snap.
func Attach(ctx context.Context, snap Snapshot) context.Context { return scope.Attach(ctx, snap) }
