package asset

import (
	"context"
	"fmt"
	"time"

	"go.hackfix.me/romstash/codec"
	"go.hackfix.me/romstash/store/deferred"
)

// Fixed keys of the persisted assets.
const (
	KeyBIOS = "BIOS_FILE"
	KeyROM  = "LAST_ROM"
)

// Repository persists BIOS and ROM images in a deferred store.
type Repository struct {
	store *deferred.Store
	now   func() time.Time
}

// NewRepository returns a repository backed by s.
func NewRepository(s *deferred.Store) *Repository {
	return &Repository{store: s, now: time.Now}
}

// Store returns the underlying deferred store.
func (r *Repository) Store() *deferred.Store {
	return r.store
}

// SaveBIOS persists raw BIOS bytes uncompressed.
func (r *Repository) SaveBIOS(raw []byte) (*deferred.Result, error) {
	return r.Save(KeyBIOS, raw, codec.None)
}

// SaveROM persists the ROM compressed with the default algorithm.
func (r *Repository) SaveROM(canonical []byte) (*deferred.Result, error) {
	return r.Save(KeyROM, canonical, codec.DefaultAlgorithm)
}

// Save encodes blob as a record and queues it for writing under key. Encoding
// errors are returned directly; write errors resolve the returned Result.
func (r *Repository) Save(key string, blob []byte, alg codec.Algorithm) (*deferred.Result, error) {
	rec, err := NewRecord(blob, alg, r.now())
	if err != nil {
		return nil, fmt.Errorf("failed encoding asset '%s': %w", key, err)
	}
	data, err := MarshalRecord(rec)
	if err != nil {
		return nil, fmt.Errorf("failed encoding asset '%s': %w", key, err)
	}

	return r.store.Put(key, data), nil
}

// Load returns the blob stored under key. A missing key returns an error
// wrapping store.ErrNotFound, and an undecodable one a *codec.CorruptDataError.
func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	rec, err := r.LoadRecord(ctx, key)
	if err != nil {
		return nil, err
	}

	blob, err := rec.Blob()
	if err != nil {
		return nil, fmt.Errorf("failed decoding asset '%s': %w", key, err)
	}

	return blob, nil
}

// LoadRecord returns the undecoded record stored under key.
func (r *Repository) LoadRecord(ctx context.Context, key string) (*Record, error) {
	data, err := r.store.Get(key).Wait(ctx)
	if err != nil {
		return nil, err
	}

	rec, err := UnmarshalRecord(data)
	if err != nil {
		return nil, fmt.Errorf("failed decoding asset '%s': %w", key, err)
	}

	return rec, nil
}

// Keys returns the stored asset keys starting with prefix.
func (r *Repository) Keys(ctx context.Context, prefix string) ([]string, error) {
	return r.store.List(prefix).Keys(ctx)
}

// Delete removes the asset stored under key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	_, err := r.store.Delete(key).Wait(ctx)
	return err
}
