package domain

import "context"

type contextKey string

const actorContextKey contextKey = "actor"

// WithActor stamps the acting user's identity onto the context. The auth
// layer sits outside the pipeline; only the identity string crosses in.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorContextKey, userID)
}

// ActorFromContext returns the acting user's identity, or "system" when
// the call did not originate from a user request.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorContextKey).(string); ok && actor != "" {
		return actor
	}
	return "system"
}
