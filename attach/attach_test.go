package attach

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/romstash/asset"
	"go.hackfix.me/romstash/codec"
	"go.hackfix.me/romstash/store"
	"go.hackfix.me/romstash/store/badger"
	"go.hackfix.me/romstash/store/deferred"
)

// fakeConsumer records attach calls. It rejects the kinds in reject, and
// normalizes ROMs by appending a trailer.
type fakeConsumer struct {
	mx     sync.Mutex
	reject map[Kind]bool
	fail   error
	calls  []Kind
	bios   []byte
	rom    []byte
}

func (c *fakeConsumer) check(p Payload) error {
	c.calls = append(c.calls, p.Kind())
	if c.fail != nil {
		return c.fail
	}
	if c.reject[p.Kind()] {
		return ErrRejectedInput
	}
	return nil
}

func (c *fakeConsumer) AttachBIOS(p Payload) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if err := c.check(p); err != nil {
		return err
	}
	c.bios = append([]byte(nil), p.Bytes()...)
	return nil
}

func (c *fakeConsumer) AttachROM(p Payload) error {
	c.mx.Lock()
	defer c.mx.Unlock()
	if err := c.check(p); err != nil {
		return err
	}
	c.rom = append(append([]byte(nil), p.Bytes()...), 0xEE, 0xEE)
	return nil
}

func (c *fakeConsumer) BIOS() []byte {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]byte(nil), c.bios...)
}

func (c *fakeConsumer) ROM() []byte {
	c.mx.Lock()
	defer c.mx.Unlock()
	return append([]byte(nil), c.rom...)
}

type preferCodes struct{ *fakeConsumer }

func (preferCodes) AcceptsBytes() bool { return false }

type testEnv struct {
	ctx      context.Context
	repo     *asset.Repository
	attacher *Attacher
	warnings *[]string
}

func newTestEnv(t *testing.T, c Consumer, opener deferred.Opener) *testEnv {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opener == nil {
		opener = func(context.Context) (store.Backend, error) {
			return badger.Open("", nil)
		}
	}
	s := deferred.Open(ctx, opener, deferred.WithLogger(logger))
	t.Cleanup(func() { s.Close() })
	repo := asset.NewRepository(s)

	var (
		mx       sync.Mutex
		warnings []string
	)
	a := New(c, repo, WithLogger(logger), WithWarningHandler(func(msg string) {
		mx.Lock()
		defer mx.Unlock()
		warnings = append(warnings, msg)
	}))

	return &testEnv{ctx: ctx, repo: repo, attacher: a, warnings: &warnings}
}

func TestAttachROMPersistsCanonicalCopy(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, nil)
	input := bytes.Repeat([]byte{0x00, 0x2E, 0x00, 0xEA}, 512)

	require.NoError(t, env.attacher.AttachROM(env.ctx, FromBytes(input), true))
	env.attacher.Wait()
	assert.Empty(t, *env.warnings)

	rec, err := env.repo.LoadRecord(env.ctx, asset.KeyROM)
	require.NoError(t, err)
	assert.Equal(t, codec.Gzip.String(), rec.Compression)

	stored, err := codec.PortableTextToBlob(rec.Data, codec.Gzip)
	require.NoError(t, err)
	assert.Equal(t, c.ROM(), stored)
	assert.NotEqual(t, input, stored)
}

func TestAttachBIOSPersistsRawInput(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, nil)
	input := []byte{0x18, 0x00, 0x00, 0xEA, 0x00, 0x00}

	require.NoError(t, env.attacher.AttachBIOS(env.ctx, FromCodes([]int{0x18, 0, 0, 0x1EA, 0, 0}), true))
	env.attacher.Wait()

	rec, err := env.repo.LoadRecord(env.ctx, asset.KeyBIOS)
	require.NoError(t, err)
	assert.Equal(t, codec.None.String(), rec.Compression)

	raw, err := codec.TextToBytes(rec.Data)
	require.NoError(t, err)
	assert.Equal(t, input, raw)
}

func TestAttachWithoutPersist(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, nil)

	require.NoError(t, env.attacher.AttachBIOS(env.ctx, FromBytes([]byte{1}), false))
	require.NoError(t, env.attacher.AttachROM(env.ctx, FromBytes([]byte{2}), false))
	env.attacher.Wait()

	keys, err := env.repo.Keys(env.ctx, "")
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.Equal(t, []byte{2, 0xEE, 0xEE}, c.ROM())
}

func TestAttachFallback(t *testing.T) {
	t.Parallel()

	t.Run("typed_rejected", func(t *testing.T) {
		t.Parallel()
		c := &fakeConsumer{reject: map[Kind]bool{KindBytes: true}}
		env := newTestEnv(t, c, nil)

		err := env.attacher.AttachBIOS(env.ctx, FromBytes([]byte{1, 2, 3}), true)
		require.NoError(t, err)
		env.attacher.Wait()

		assert.Equal(t, []Kind{KindBytes, KindCodes}, c.calls)
		assert.Equal(t, []byte{1, 2, 3}, c.BIOS())
		assert.Empty(t, *env.warnings)
	})

	t.Run("capability_check", func(t *testing.T) {
		t.Parallel()
		fc := &fakeConsumer{reject: map[Kind]bool{KindBytes: true}}
		env := newTestEnv(t, preferCodes{fc}, nil)

		err := env.attacher.AttachROM(env.ctx, FromBytes([]byte{1, 2, 3}), false)
		require.NoError(t, err)
		assert.Equal(t, []Kind{KindCodes}, fc.calls)
	})

	t.Run("both_rejected", func(t *testing.T) {
		t.Parallel()
		c := &fakeConsumer{reject: map[Kind]bool{KindBytes: true, KindCodes: true}}
		env := newTestEnv(t, c, nil)

		err := env.attacher.AttachROM(env.ctx, FromBytes([]byte{1}), true)
		var rerr *ConsumerRejectedError
		require.ErrorAs(t, err, &rerr)
		assert.Equal(t, "ROM", rerr.Asset)
		assert.Equal(t, []Kind{KindBytes, KindCodes}, c.calls)

		env.attacher.Wait()
		keys, err := env.repo.Keys(env.ctx, "")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("invalid_asset", func(t *testing.T) {
		t.Parallel()
		invalid := errors.New("bad header")
		c := &fakeConsumer{fail: invalid}
		env := newTestEnv(t, c, nil)

		err := env.attacher.AttachBIOS(env.ctx, FromBytes([]byte{1}), true)
		assert.ErrorIs(t, err, invalid)
		assert.EqualError(t, err, "failed attaching BIOS: bad header")
		assert.Len(t, c.calls, 1)
	})
}

func TestAttachPersistFailureIsWarning(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, func(context.Context) (store.Backend, error) {
		return nil, errors.New("blocked by browser policy")
	})

	err := env.attacher.AttachROM(env.ctx, FromBytes([]byte{1, 2}), true)
	require.NoError(t, err)
	env.attacher.Wait()

	assert.Equal(t, []byte{1, 2, 0xEE, 0xEE}, c.ROM())
	require.Len(t, *env.warnings, 1)
	assert.Equal(t,
		"Could not store ROM: asset store is unavailable: blocked by browser policy",
		(*env.warnings)[0])
}

func TestAttachPersistIgnoresCancellation(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, nil)

	ctx, cancel := context.WithCancel(env.ctx)
	require.NoError(t, env.attacher.AttachROM(ctx, FromBytes([]byte{1, 2}), true))
	require.NoError(t, env.attacher.AttachBIOS(ctx, FromBytes([]byte{3}), true))
	cancel()
	env.attacher.Wait()

	assert.Empty(t, *env.warnings)
	rom, err := env.repo.Load(env.ctx, asset.KeyROM)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 0xEE, 0xEE}, rom)
	bios, err := env.repo.Load(env.ctx, asset.KeyBIOS)
	require.NoError(t, err)
	assert.Equal(t, []byte{3}, bios)
}

func TestAttachConcurrentROMs(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rom := bytes.Repeat([]byte{byte(i)}, 64+i)
			assert.NoError(t, env.attacher.AttachROM(env.ctx, FromBytes(rom), true))
		}(i)
	}
	wg.Wait()
	env.attacher.Wait()

	assert.Empty(t, *env.warnings)
	stored, err := env.repo.Load(env.ctx, asset.KeyROM)
	require.NoError(t, err)
	assert.Equal(t, c.ROM(), stored)
}

func TestAttachRestore(t *testing.T) {
	t.Parallel()

	c := &fakeConsumer{}
	env := newTestEnv(t, c, nil)

	restored, err := env.attacher.Restore(env.ctx)
	require.NoError(t, err)
	assert.Empty(t, restored)

	_, err = env.repo.SaveBIOS([]byte("bios"))
	require.NoError(t, err)
	res, err := env.repo.SaveROM([]byte("rom"))
	require.NoError(t, err)
	_, err = res.Wait(env.ctx)
	require.NoError(t, err)

	restored, err = env.attacher.Restore(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"BIOS", "ROM"}, restored)
	assert.Equal(t, []byte("bios"), c.BIOS())
	assert.Equal(t, []byte("rom\xEE\xEE"), c.ROM())

	// Restoring doesn't write anything back.
	env.attacher.Wait()
	rom, err := env.repo.Load(env.ctx, asset.KeyROM)
	require.NoError(t, err)
	assert.Equal(t, []byte("rom"), rom)
}

func TestPayload(t *testing.T) {
	t.Parallel()

	p := FromCodes([]int{0x100, 0x1FF, 0x41, 0})
	assert.Equal(t, KindCodes, p.Kind())
	assert.Equal(t, 4, p.Len())
	assert.Equal(t, []byte{0x00, 0xFF, 0x41, 0x00}, p.Bytes())

	b := p.As(KindBytes)
	assert.Equal(t, KindBytes, b.Kind())
	assert.Equal(t, []int{0x00, 0xFF, 0x41, 0x00}, b.Codes())
	assert.Equal(t, b, b.As(KindBytes))
}
