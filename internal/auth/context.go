// Package auth carries the admin actor name through request contexts. There
// is no authentication here; the name is recorded on admin events and logs.
package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const ActorHeader = "x-admin-user"

type actorKey struct{}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns the actor stored by ContextInterceptor, falling back to
// incoming metadata. Empty when neither is set.
func GetActor(ctx context.Context) string {
	if val, ok := ctx.Value(actorKey{}).(string); ok {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(ActorHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}

func ContextInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if val := md.Get(ActorHeader); len(val) > 0 {
				ctx = WithActor(ctx, val[0])
			}
		}
		return handler(ctx, req)
	}
}
