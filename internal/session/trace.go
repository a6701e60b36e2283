package session

import "context"

// Trace receives progress callbacks from a Client during Run.
// Any field may be nil.
type Trace struct {
	// Connected is called once the transport is authenticated and before
	// the command is sent
	Connected func(host string)
}

type traceKey struct{}

// WithTrace returns a copy of ctx carrying trace
func WithTrace(ctx context.Context, trace *Trace) context.Context {
	if trace == nil {
		return ctx
	}
	return context.WithValue(ctx, traceKey{}, trace)
}

// ContextTrace returns the Trace attached to ctx, or nil
func ContextTrace(ctx context.Context) *Trace {
	trace, _ := ctx.Value(traceKey{}).(*Trace)
	return trace
}

func (t *Trace) connected(host string) {
	if t != nil && t.Connected != nil {
		t.Connected(host)
	}
}
