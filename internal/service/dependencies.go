package service

import (
	"context"

	"github.com/yashikart/gurukul-backend--sub000/internal/domain"
	"github.com/yashikart/gurukul-backend--sub000/internal/gate"
	"github.com/yashikart/gurukul-backend--sub000/internal/store"
)

// runInTransaction is indirected so tests can run commit sequences against
// in-memory stores.
var runInTransaction = store.RunInTransaction

// Authorizer is the gate surface the services depend on. Defined here so
// tests can script decisions without a running exchange.
type Authorizer interface {
	// Authorize proposes a mutation and blocks until it resolves.
	Authorize(ctx context.Context, req gate.Request) (*domain.AuthorizationDecision, error)

	// SafeMode reports whether the authority is currently unreachable.
	SafeMode() bool
}
