// Package middleware provides composable wrappers around a
// CheckpointStore: encryption at rest and PII masking.
package middleware

import "github.com/aretw0/espalier/pkg/ports"

// Middleware allows wrapping a CheckpointStore to add behavior.
type Middleware func(ports.CheckpointStore) ports.CheckpointStore

// Chain applies middlewares outermost-first: Chain(store, a, b) wraps the
// store with b, then a.
func Chain(store ports.CheckpointStore, middlewares ...Middleware) ports.CheckpointStore {
	for i := len(middlewares) - 1; i >= 0; i-- {
		store = middlewares[i](store)
	}
	return store
}
