package app

import (
	"context"
	"encoding/hex"
	"fmt"
	"path/filepath"

	"go.hackfix.me/romstash/app/cli"
	"go.hackfix.me/romstash/store"
	"go.hackfix.me/romstash/store/badger"
	"go.hackfix.me/romstash/store/deferred"
	"go.hackfix.me/romstash/store/sqlite"
)

// storeOpener returns the function that opens the configured store backend.
// On an in-memory filesystem, the backend is kept in memory as well.
func (app *App) storeOpener(opts cli.StoreOptions) deferred.Opener {
	return func(ctx context.Context) (store.Backend, error) {
		inMemory := app.ctx.FS == nil || app.ctx.FS.Name() == "MemoryFileSystem"
		if !inMemory {
			if err := app.ctx.FS.MkdirAll(opts.DataDir, 0o700); err != nil {
				return nil, fmt.Errorf("failed creating data directory: %w", err)
			}
		}

		switch opts.Backend {
		case "sqlite":
			path := ":memory:"
			if !inMemory {
				path = filepath.Join(opts.DataDir, "store.db")
			}
			sopts := []sqlite.Option{sqlite.WithLogger(app.ctx.Logger)}
			if opts.EncryptionKey != "" {
				sopts = append(sopts, sqlite.WithEncryptionKey(opts.EncryptionKey))
			}
			return sqlite.Open(ctx, path, sopts...)
		default:
			var path string
			if !inMemory {
				path = filepath.Join(opts.DataDir, "badger")
			}
			var encKey []byte
			if opts.EncryptionKey != "" {
				var err error
				if encKey, err = hex.DecodeString(opts.EncryptionKey); err != nil {
					return nil, fmt.Errorf("invalid encryption key: %w", err)
				}
			}
			return badger.Open(path, encKey)
		}
	}
}
