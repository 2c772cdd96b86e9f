package store

import "errors"

// ErrNotFound is wrapped by the error a Backend returns when a key has no
// stored value.
var ErrNotFound = errors.New("key not found")

// Backend is a persistent, transactional key-value database holding asset
// blobs. All keys live in a single logical table.
type Backend interface {
	Close() error
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
	List(prefix string) ([]string, error)
}
