// Package storage provides the key/value persistence layer the shopping
// store reads and writes through. Collections are stored as JSON documents
// under well-known keys so any backend that can hold bytes works.
package storage

import (
	"context"
	"fmt"
)

// Collection keys used by the shopping store.
const (
	KeyCurrentItems = "currentItems"
	KeyCategories   = "categories"
	KeyHistory      = "history"
)

// KV is the persistence contract. Save serializes value under key,
// replacing any previous document. Load deserializes the stored document
// into dest and reports whether the key existed; a missing key is not an
// error.
type KV interface {
	Save(ctx context.Context, key string, value any) error
	Load(ctx context.Context, key string, dest any) (bool, error)
}

// PersistenceError wraps a serialization or storage I/O failure.
type PersistenceError struct {
	Err error
	Op  string
	Key string
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
