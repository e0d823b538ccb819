package testutil

import (
	"context"
	"net/http"

	"bloodlink/internal/platform/middleware"
	"bloodlink/pkg/domain"
)

// WithActor adds an authenticated actor to the request context, simulating
// what the auth middleware does for a valid bearer token.
func WithActor(req *http.Request, actorID string, role domain.ActorRole) *http.Request {
	ctx := req.Context()
	ctx = context.WithValue(ctx, middleware.ContextKeyActorID, actorID)
	ctx = context.WithValue(ctx, middleware.ContextKeyActorRole, role)
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
