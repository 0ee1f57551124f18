// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries never depend on a specific observability backend. The CLI (or
// an embedding application) registers hooks at startup and the pipeline
// and caches report events through them.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetPipelineHooks(&myPipelineHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Pipeline().OnParseStart(ctx, len(files))
//	// ... parse ...
//	observability.Pipeline().OnParseComplete(ctx, len(files), len(containers), duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the diagram pipeline.
type PipelineHooks interface {
	// Resolve events
	OnResolveStart(ctx context.Context, path string)
	OnResolveComplete(ctx context.Context, path, convention string, fileCount int, duration time.Duration)

	// Parse events
	OnParseStart(ctx context.Context, fileCount int)
	OnParseComplete(ctx context.Context, fileCount, containerCount int, duration time.Duration, err error)

	// Build events
	OnBuildStart(ctx context.Context, diagramType string, containerCount int)
	OnBuildComplete(ctx context.Context, diagramType string, nodeCount, diagnosticCount int, duration time.Duration)

	// Render events
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnResolveStart(context.Context, string)                                {}
func (NoopPipelineHooks) OnResolveComplete(context.Context, string, string, int, time.Duration) {}
func (NoopPipelineHooks) OnParseStart(context.Context, int)                                     {}
func (NoopPipelineHooks) OnParseComplete(context.Context, int, int, time.Duration, error)       {}
func (NoopPipelineHooks) OnBuildStart(context.Context, string, int)                             {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, string, int, int, time.Duration)      {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                                 {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error)   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers custom pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
