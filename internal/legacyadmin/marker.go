// Package legacyadmin implements the break-glass admin channel. It is fully
// disjoint from the backend session and role tables: the only inputs are a
// server-configured credential pair and a persisted marker, and the only
// output is a boolean admin flag.
package legacyadmin

import "context"

// Marker is the persisted break-glass state. Its shape is stable because
// operators inspect and clear it by hand during incidents.
type Marker struct {
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

// MarkerStore persists the marker. Read returns sentinel.ErrNotFound when no
// marker is set; Clear on a missing marker is a no-op.
type MarkerStore interface {
	Read(ctx context.Context) (*Marker, error)
	Write(ctx context.Context, marker Marker) error
	Clear(ctx context.Context) error
}
