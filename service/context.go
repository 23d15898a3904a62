package service

import (
	"context"

	"writing_marketplace/model"

	"github.com/google/uuid"
)

type ctxKey string

const ctxCallerKey ctxKey = "caller"

// WithCaller attaches the authenticated account to ctx. Requests without a
// session carry no caller.
func WithCaller(ctx context.Context, claim model.TokenClaim) context.Context {
	return context.WithValue(ctx, ctxCallerKey, claim)
}

func CallerFromContext(ctx context.Context) (model.TokenClaim, bool) {
	v, ok := ctx.Value(ctxCallerKey).(model.TokenClaim)
	return v, ok && v.AccountID != uuid.Nil
}

func requireCaller(ctx context.Context) (model.TokenClaim, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return model.TokenClaim{}, ErrUnauthorized
	}
	return caller, nil
}

func requireRole(ctx context.Context, roles ...model.Role) (model.TokenClaim, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return caller, err
	}
	for _, r := range roles {
		if caller.Role == r {
			return caller, nil
		}
	}
	return caller, ErrForbidden
}
