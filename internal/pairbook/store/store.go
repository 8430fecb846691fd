// Package store is the persistence boundary: a small key-value contract that
// holds serialized whole-collection snapshots under a fixed set of logical
// keys, plus one scalar key for the fortune character assignment.
//
// Writes always replace the full snapshot for a key; reads return the last
// written snapshot or "absent" before the first write. The snapshots carry no
// schema version and no migration logic of their own.
//
// Three backends implement the contract: SQLite (default), flat JSON files,
// and Postgres.
package store

import "context"

// Key identifies one logical snapshot slot.
type Key string

const (
	// KeyPairs holds the serialized pairs collection (todos included).
	KeyPairs Key = "pairs"
	// KeyCharacters holds the serialized characters collection.
	KeyCharacters Key = "characters"
	// KeyReports holds the serialized feedback report log.
	KeyReports Key = "reports"
	// KeyFortune holds the single daily fortune record.
	KeyFortune Key = "fortune"
	// KeyFortuneChar holds the scalar fortune character id.
	KeyFortuneChar Key = "fortune_char"
)

// Keys lists every logical key, in load order.
var Keys = []Key{KeyPairs, KeyCharacters, KeyReports, KeyFortune, KeyFortuneChar}

// Store is implemented by every persistence backend.
type Store interface {
	// Read returns the last snapshot written under key. The boolean reports
	// whether the key has ever been written.
	Read(ctx context.Context, key Key) ([]byte, bool, error)
	// Write replaces the snapshot under key.
	Write(ctx context.Context, key Key, data []byte) error
	// Close releases the backend's resources.
	Close() error
}
