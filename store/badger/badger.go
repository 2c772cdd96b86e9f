package badger

import (
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"

	"go.hackfix.me/romstash/store"
)

// table is the key prefix of the logical table holding all assets.
const table = "assets/"

// Badger is a store.Backend backed by a Badger database.
type Badger struct {
	db *badger.DB
}

var _ store.Backend = &Badger{}

// Open opens or creates the Badger database at path. An empty path opens an
// in-memory database. If encKey is set, it must be 16, 24 or 32 bytes long,
// selecting AES-128, AES-192 or AES-256 encryption at rest.
func Open(path string, encKey []byte) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	if len(encKey) > 0 {
		// Badger requires a block index cache when encryption is enabled.
		opts = opts.WithEncryptionKey(encKey).WithIndexCacheSize(64 << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed opening badger database: %w", err)
	}

	return &Badger{db: db}, nil
}

func (s *Badger) Close() error {
	return s.db.Close()
}

func (s *Badger) Get(key string) ([]byte, error) {
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(tableKey(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("key '%s' doesn't exist: %w", key, store.ErrNotFound)
		}
		return nil, err
	}

	return item.ValueCopy(nil)
}

func (s *Badger) Set(key string, value []byte) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	if err := txn.Set(tableKey(key), value); err != nil {
		return err
	}

	return txn.Commit()
}

func (s *Badger) Delete(key string) error {
	txn := s.db.NewTransaction(true)
	defer txn.Discard()

	k := tableKey(key)
	if _, err := txn.Get(k); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("key '%s' doesn't exist: %w", key, store.ErrNotFound)
		}
		return err
	}
	if err := txn.Delete(k); err != nil {
		return err
	}

	return txn.Commit()
}

func (s *Badger) List(prefix string) ([]string, error) {
	txn := s.db.NewTransaction(false)
	defer txn.Discard()

	opts := badger.DefaultIteratorOptions
	// Enable key-only iteration, which is more efficient.
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	p := tableKey(prefix)
	keys := []string{}
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		keys = append(keys, strings.TrimPrefix(string(it.Item().Key()), table))
	}

	return keys, nil
}

func tableKey(key string) []byte {
	return []byte(table + key)
}
