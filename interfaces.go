// Package memvfs contains core domain types and interfaces for the in-memory
// virtual filesystem. The tree engine itself lives in the filesystem package.
package memvfs

import (
	"context"
)

// ContentProvider produces the bytes of a file node when it is built.
// Content is captured once; later changes at the source are not observed.
type ContentProvider interface {
	Content(ctx context.Context) ([]byte, error)
}

// StatInvalidator is implemented by caches that hold stat results keyed by URL
// outside of the engine. The engine never reads such a cache, it only tells it
// which entries went stale after a mutation.
type StatInvalidator interface {
	// Invalidate drops the entry for url and every entry below it
	Invalidate(url string)
	// Clear drops every entry
	Clear()
}
