package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestGetActor(t *testing.T) {
	assert.Equal(t, SystemActor, GetActor(context.Background()))

	ctx := WithActor(context.Background(), "cashier-7")
	assert.Equal(t, "cashier-7", GetActor(ctx))

	md := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-user-id", "admin"))
	assert.Equal(t, "admin", GetActor(md))

	// An explicit actor wins over metadata.
	assert.Equal(t, "cashier-7", GetActor(WithActor(md, "cashier-7")))
}
