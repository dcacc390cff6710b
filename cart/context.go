package cart

import "context"

type ctxKey struct{}

// NewContext attaches e to ctx for the code running inside a session.
func NewContext(ctx context.Context, e *Engine) context.Context {
	return context.WithValue(ctx, ctxKey{}, e)
}

// FromContext returns the session's engine, if one was attached.
func FromContext(ctx context.Context) (*Engine, bool) {
	e, ok := ctx.Value(ctxKey{}).(*Engine)
	return e, ok && e != nil
}

// MustFromContext panics when no engine was attached with NewContext.
func MustFromContext(ctx context.Context) *Engine {
	e, ok := FromContext(ctx)
	if !ok {
		panic("cart: no engine in context; attach one with cart.NewContext")
	}
	return e
}
