package database

import (
	"context"
)

// IdentityReader provides read-only access to the identity store
type IdentityReader interface {
	// Get retrieves an identity by ID, returns nil if not found
	Get(ctx context.Context, id int64) (*Identity, error)
	// SearchByName returns identities whose full name contains the query
	SearchByName(ctx context.Context, name string) ([]Identity, error)
	// List returns every identity ordered by ID
	List(ctx context.Context) ([]Identity, error)
	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}

// IdentityWriter provides write access to the identity store
type IdentityWriter interface {
	IdentityReader

	// Create inserts a new identity and returns its ID. ID on the input is ignored.
	Create(ctx context.Context, ident *Identity) (int64, error)

	// UpdateVector replaces the face vector of an identity. A nil vector clears it.
	// Returns the number of rows changed.
	UpdateVector(ctx context.Context, id int64, vector []float32) (int64, error)
}

// CacheReader provides read access to the local identity cache
type CacheReader interface {
	// List returns the whole snapshot ordered by ID
	List(ctx context.Context) ([]Identity, error)
	// Count returns the number of cached identities
	Count(ctx context.Context) (int, error)
	// FindByName returns cached identities whose normalized name contains the normalized query
	FindByName(ctx context.Context, name string) ([]Identity, error)
}

// CacheWriter replaces the local identity cache
type CacheWriter interface {
	CacheReader

	// ReplaceAll swaps the cache contents for identities in one transaction.
	// Readers observe either the previous snapshot or the new one, never a mix.
	ReplaceAll(ctx context.Context, identities []Identity) error
}
