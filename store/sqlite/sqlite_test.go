package sqlite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/romstash/store"
)

func memPath(t *testing.T) string {
	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)
	return fmt.Sprintf("file:store-%x?mode=memory&cache=shared", rndName)
}

func TestStore(t *testing.T) {
	t.Parallel()

	s, err := Open(context.Background(), memPath(t))
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get("LAST_ROM")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Set("LAST_ROM", []byte("a\x00")))
	require.NoError(t, s.Set("LAST_ROM", []byte("b\x00")))
	require.NoError(t, s.Set("BIOS_FILE", []byte("bios")))
	require.NoError(t, s.Set("LAST_%", []byte("odd")))

	val, err := s.Get("LAST_ROM")
	require.NoError(t, err)
	assert.Equal(t, []byte("b\x00"), val)

	keys, err := s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"BIOS_FILE", "LAST_%", "LAST_ROM"}, keys)

	keys, err = s.List("LAST_%")
	require.NoError(t, err)
	assert.Equal(t, []string{"LAST_%"}, keys)

	require.NoError(t, s.Delete("BIOS_FILE"))
	assert.ErrorIs(t, s.Delete("BIOS_FILE"), store.ErrNotFound)
}

func TestStoreReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "store.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, s.Set("BIOS_FILE", []byte("bios")))
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	val, err := s.Get("BIOS_FILE")
	require.NoError(t, err)
	assert.Equal(t, []byte("bios"), val)
	require.Len(t, s.Migrations(), 1)
	assert.True(t, s.Migrations()[0].Applied)
}

func TestStoreEncrypted(t *testing.T) {
	t.Parallel()

	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	path := memPath(t)
	s, err := Open(context.Background(), path, WithEncryptionKey(hex.EncodeToString(key)))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("BIOS_FILE", []byte("bios")))
	val, err := s.Get("BIOS_FILE")
	require.NoError(t, err)
	assert.Equal(t, []byte("bios"), val)

	var raw []byte
	err = s.db.QueryRow(`SELECT value FROM assets WHERE key = ?`, "BIOS_FILE").Scan(&raw)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "bios")

	_, err = Open(context.Background(), memPath(t), WithEncryptionKey("abcd"))
	assert.EqualError(t, err, "invalid encryption key: expected key length of 32; got 2")
}

func TestStoreOutlivesOpenContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	s, err := Open(ctx, memPath(t))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("LAST_ROM", []byte("before")))
	cancel()
	require.NoError(t, s.Set("LAST_ROM", []byte("after")))

	val, err := s.Get("LAST_ROM")
	require.NoError(t, err)
	assert.Equal(t, []byte("after"), val)

	keys, err := s.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"LAST_ROM"}, keys)
	require.NoError(t, s.Delete("LAST_ROM"))
}
