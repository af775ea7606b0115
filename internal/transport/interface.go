package transport

import "context"

// Adapter is the boundary to the media transport engine. A single Adapter
// is reused across connection attempts: Initialize prepares a fresh engine
// session, Dispose tears it down.
//
// Initialize must fail without acquiring anything when ctx is already done at
// the moment it takes ownership of the engine, and Dispose must release
// whatever a concurrent Initialize managed to create.
type Adapter interface {
	Initialize(ctx context.Context) error
	// CreateLocalOffer returns once the offer is committed as the local
	// description and candidate gathering has finished or timed out.
	CreateLocalOffer(ctx context.Context) (Description, error)
	ApplyRemoteAnswer(ctx context.Context, answer Description) error
	// Dispose is idempotent and valid before Initialize.
	Dispose() error
	// Events is open for the lifetime of the adapter, not of one session.
	Events() <-chan Event
}
