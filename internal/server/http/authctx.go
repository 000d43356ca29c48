package httpserver

import (
	"context"

	"github.com/and161185/supermock-admin/internal/model"
)

type ctxKey string

const principalKey ctxKey = "sm.principal"

// WithPrincipal stores the authenticated caller in context.
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx fetches the caller from context.
func PrincipalFromCtx(ctx context.Context) (model.Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return model.Principal{}, false
	}
	p, ok := v.(model.Principal)
	return p, ok
}
