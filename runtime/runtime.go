package runtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/jni-bridge/dispatch"
	"github.com/wippyai/jni-bridge/errors"
	"github.com/wippyai/jni-bridge/heap"
	"github.com/wippyai/jni-bridge/managed"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/refs"
)

// Config configures a Runtime.
type Config struct {
	// Logger is installed into the dispatch and refs packages.
	// nil keeps their current loggers.
	Logger *zap.Logger

	// HeapLimitPages caps native memory in 64KB pages.
	// 0 means heap.DefaultLimitPages.
	HeapLimitPages uint32

	// HeapInitialPages is the native memory reserved up front.
	// 0 means heap.DefaultInitialPages.
	HeapInitialPages uint32

	// StringEncoding selects the native string form.
	StringEncoding marshal.Encoding
}

// Runtime is the entry point for managed callers.
type Runtime struct {
	heap     *heap.Heap
	registry *refs.Registry
	disp     *dispatch.Dispatcher
	logger   *zap.Logger
}

// New creates a runtime serving table.
func New(ctx context.Context, table *dispatch.Table, cfg *Config) (*Runtime, error) {
	if table == nil {
		return nil, errors.InvalidInput(errors.PhaseBuild, "binding table is nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Logger != nil {
		dispatch.SetLogger(cfg.Logger)
		refs.SetLogger(cfg.Logger)
	}
	logger := dispatch.Logger()

	h, err := heap.New(ctx, &heap.Config{
		LimitPages:   cfg.HeapLimitPages,
		InitialPages: cfg.HeapInitialPages,
	})
	if err != nil {
		return nil, err
	}

	reg := refs.NewRegistry()
	m := marshal.New(h, nil, cfg.StringEncoding)

	if unbound := table.UnboundNatives(); len(unbound) > 0 {
		keys := make([]string, len(unbound))
		for i, k := range unbound {
			keys[i] = k.String()
		}
		logger.Debug("native methods without entry points", zap.Strings("methods", keys))
	}

	return &Runtime{
		heap:     h,
		registry: reg,
		disp:     dispatch.New(table, m, reg),
		logger:   logger,
	}, nil
}

// Close releases the native heap.
func (r *Runtime) Close(ctx context.Context) error {
	if n := r.registry.LivePersistent(); n > 0 {
		r.logger.Warn("closing runtime with live persistent references", zap.Int("count", n))
	}
	return r.heap.Close(ctx)
}

// Invoke calls a method. target is nil for static methods.
func (r *Runtime) Invoke(ctx context.Context, k dispatch.Key, target any, args ...any) (any, error) {
	return r.disp.Invoke(ctx, k, target, args...)
}

// NewObject constructs an instance of class.
func (r *Runtime) NewObject(ctx context.Context, class, ctorSig string, args ...any) (*managed.Object, error) {
	return r.disp.NewObject(ctx, class, ctorSig, args...)
}

// GetField reads a field. target is nil for static fields.
func (r *Runtime) GetField(ctx context.Context, k dispatch.Key, target any) (any, error) {
	return r.disp.GetField(ctx, k, target)
}

// SetField writes a field. target is nil for static fields.
func (r *Runtime) SetField(ctx context.Context, k dispatch.Key, target, value any) error {
	return r.disp.SetField(ctx, k, target, value)
}

// Table returns the binding table.
func (r *Runtime) Table() *dispatch.Table { return r.disp.Table() }

// Dispatcher returns the underlying dispatcher.
func (r *Runtime) Dispatcher() *dispatch.Dispatcher { return r.disp }

// Registry returns the object reference registry.
func (r *Runtime) Registry() *refs.Registry { return r.registry }

// Stats is a snapshot of live boundary resources.
type Stats struct {
	Views          int
	Locals         int
	Persistent     int
	HeapBuffers    int
	HeapBytesInUse uint32
	HeapSize       uint32
}

// Stats returns the current resource counts. Between calls Views, Locals
// and HeapBuffers are zero.
func (r *Runtime) Stats() Stats {
	return Stats{
		Views:          r.disp.Bridge().Live(),
		Locals:         r.registry.LiveLocal(),
		Persistent:     r.registry.LivePersistent(),
		HeapBuffers:    r.heap.Live(),
		HeapBytesInUse: r.heap.InUse(),
		HeapSize:       r.heap.Size(),
	}
}
