package scope

import (
	"context"

	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/level"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/metadata"
	"github.com/gxo-labs/scopelog/pkg/scopelog/v1/tags"
)

// Provider gives a logger read access to the ambient scope state of a
// context. Log statements consult it on every call, so implementations must
// be cheap and safe for concurrent use.
type Provider interface {
	// Tags returns the tags visible in ctx.
	Tags(ctx context.Context) *tags.Tags
	// Metadata returns the scope metadata visible in ctx.
	Metadata(ctx context.Context) *metadata.Scope
	// ShouldForceLogging reports whether ctx forces lvl for the named logger.
	ShouldForceLogging(ctx context.Context, name string, lvl level.Level) bool
	// Lookup returns the LoggingScope bound to t in ctx.
	Lookup(ctx context.Context, t *Type) (*LoggingScope, bool)
}

type contextProvider struct{}

// DefaultProvider returns the Provider reading scopes installed with
// NewContext.
func DefaultProvider() Provider { return contextProvider{} }

func (contextProvider) Tags(ctx context.Context) *tags.Tags { return CurrentTags(ctx) }

func (contextProvider) Metadata(ctx context.Context) *metadata.Scope { return CurrentMetadata(ctx) }

func (contextProvider) ShouldForceLogging(ctx context.Context, name string, lvl level.Level) bool {
	return ShouldForceLogging(ctx, name, lvl)
}

func (contextProvider) Lookup(ctx context.Context, t *Type) (*LoggingScope, bool) {
	return Lookup(ctx, t)
}

// NoOpProvider is a Provider that ignores installed scopes. A logger using it
// sees no tags, no metadata and no forced levels.
type NoOpProvider struct{}

// NewNoOpProvider returns a Provider reporting empty scope state.
func NewNoOpProvider() Provider { return &NoOpProvider{} }

func (*NoOpProvider) Tags(context.Context) *tags.Tags { return tags.Empty() }

func (*NoOpProvider) Metadata(context.Context) *metadata.Scope { return metadata.None() }

func (*NoOpProvider) ShouldForceLogging(context.Context, string, level.Level) bool { return false }

func (*NoOpProvider) Lookup(context.Context, *Type) (*LoggingScope, bool) { return nil, false }

var (
	_ Provider = contextProvider{}
	_ Provider = (*NoOpProvider)(nil)
)
