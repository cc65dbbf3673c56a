// Package store defines the collaborator interface the pipeline persists
// edits and thumbnails through (spec section 6, the out-of-scope SQLite
// edit/thumbnail store). Like loader.Loader and icc.Provider, this is an
// external collaborator interface only — no SQLite-backed implementation
// ships with this module (spec.md's Non-goals: "the on-disk SQLite
// edit/thumbnail store (an EditStore)").
package store

import "github.com/marcinz606/NegPy/config"

// Record is one complete, immutable snapshot of a file's edit state.
// Spec section 9's design note on immutable record updates ("WorkspaceConfig
// partial updates become immutable record updates via structural
// replacement") means EditStore always receives and returns whole Records,
// never a partial patch.
type Record struct {
	FileKey   string
	Config    config.WorkspaceConfig
	Thumbnail []byte // encoded thumbnail bytes, format left to the implementation
}

// EditStore persists and retrieves per-file edit records and their
// thumbnails. The engine never writes through this interface directly
// (spec section 5: "the edit store... is accessed through an interface
// that is externally serialized; the engine never writes them") — only a
// host application's save/load path does.
type EditStore interface {
	// Load returns the stored Record for key, and ok=false if none exists.
	Load(key string) (rec Record, ok bool, err error)

	// Save persists rec, replacing any existing record for rec.FileKey.
	Save(rec Record) error

	// Delete removes key's record, if present. Deleting an absent key is
	// not an error.
	Delete(key string) error

	// Keys lists every FileKey currently persisted, for a file-browser
	// grid to enumerate without loading each Record's full Config.
	Keys() ([]string, error)
}
