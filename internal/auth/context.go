package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type ctxKey struct{}

const (
	ActorHeader   = "X-User-ID"
	metadataActor = "x-user-id"
	SystemActor   = "system"
)

// WithActor stores the acting user on the context for ledger entries.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// GetActor returns the actor put on the context by WithActor, falling back to
// incoming gRPC metadata, then to SystemActor.
func GetActor(ctx context.Context) string {
	if val, ok := ctx.Value(ctxKey{}).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(metadataActor); len(val) > 0 && val[0] != "" {
			return val[0]
		}
	}
	return SystemActor
}
