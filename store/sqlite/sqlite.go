package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"go.hackfix.me/romstash/crypto"
	"go.hackfix.me/romstash/store"
	"go.hackfix.me/romstash/store/sqlite/migrator"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a store.Backend backed by a SQLite database.
type Store struct {
	db         *sql.DB
	ctx        context.Context
	logger     *slog.Logger
	encKey     *[32]byte
	migrations []*migrator.Migration
}

var _ store.Backend = &Store{}

// Option is a function that allows configuring the store.
type Option func(*Store) error

// WithEncryptionKey seals every stored value with the given hex-encoded
// 32 byte key.
func WithEncryptionKey(keyHex string) Option {
	return func(s *Store) error {
		key, err := crypto.DecodeHexKey(keyHex)
		if err != nil {
			return fmt.Errorf("invalid encryption key: %w", err)
		}
		s.encKey = key
		return nil
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// Open opens or creates the SQLite database at path, and creates the assets
// table if it doesn't exist yet.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer, and in-memory databases are private to
	// a connection unless shared cache is used.
	db.SetMaxOpenConns(1)

	// ctx bounds opening and migrations only. Later operations run until
	// Close, so writes queued before a shutdown still commit.
	s := &Store{db: db, ctx: context.WithoutCancel(ctx), logger: slog.Default()}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			db.Close()
			return nil, err
		}
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		db.Close()
		return nil, err
	}
	if s.migrations, err = migrator.LoadMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, err
	}

	err = migrator.RunMigrations(ctx, db, s.migrations, migrator.MigrationUp, "all", s.logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed initializing store schema: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(s.ctx,
		`SELECT value FROM assets WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("key '%s' doesn't exist: %w", key, store.ErrNotFound)
		}
		return nil, err
	}

	if s.encKey != nil {
		if value, err = crypto.DecryptSym(value, s.encKey); err != nil {
			return nil, fmt.Errorf("failed decrypting value of key '%s': %w", key, err)
		}
	}

	return value, nil
}

func (s *Store) Set(key string, value []byte) error {
	if s.encKey != nil {
		var err error
		if value, err = crypto.EncryptSym(value, s.encKey); err != nil {
			return fmt.Errorf("failed encrypting value of key '%s': %w", key, err)
		}
	}

	tx, err := s.db.BeginTx(s.ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(s.ctx,
		`INSERT INTO assets (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Delete(key string) error {
	res, err := s.db.ExecContext(s.ctx, `DELETE FROM assets WHERE key = ?`, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("key '%s' doesn't exist: %w", key, store.ErrNotFound)
	}

	return nil
}

func (s *Store) List(prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(s.ctx,
		`SELECT key FROM assets WHERE substr(key, 1, length(?1)) = ?1 ORDER BY key`,
		prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Migrations returns the schema migrations known to the store.
func (s *Store) Migrations() []*migrator.Migration {
	return s.migrations
}
