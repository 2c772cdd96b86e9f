package attach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.hackfix.me/romstash/asset"
	"go.hackfix.me/romstash/store"
	"go.hackfix.me/romstash/store/deferred"
)

// Consumer receives attached assets, typically an emulator core.
type Consumer interface {
	AttachBIOS(Payload) error
	AttachROM(Payload) error
	// BIOS and ROM return the consumer's canonical copies of the attached
	// assets, which may differ from the attached bytes.
	BIOS() []byte
	ROM() []byte
}

// BytesAcceptor is implemented by consumers that can tell up front whether
// they accept typed byte buffers.
type BytesAcceptor interface {
	AcceptsBytes() bool
}

// Attacher hands assets to a Consumer and persists them.
type Attacher struct {
	consumer Consumer
	repo     *asset.Repository
	logger   *slog.Logger
	warn     func(msg string)

	// mx serializes attaching with taking the canonical snapshot, so the
	// persisted copy is always the one that was attached.
	mx sync.Mutex
	// saveMx guards gen, the latest attach generation per asset. Background
	// saves of older generations are dropped.
	saveMx sync.Mutex
	gen    map[string]uint64
	wg     sync.WaitGroup
}

// Option is a function that allows configuring the Attacher.
type Option func(*Attacher)

// WithLogger sets the logger used by the Attacher.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Attacher) {
		a.logger = logger
	}
}

// WithWarningHandler sets the function that shows non-fatal warnings, such as
// persistence failures, to the user.
func WithWarningHandler(fn func(msg string)) Option {
	return func(a *Attacher) {
		a.warn = fn
	}
}

// New returns an Attacher that attaches assets to c and persists them in
// repo. repo may be nil, in which case nothing is persisted.
func New(c Consumer, repo *asset.Repository, opts ...Option) *Attacher {
	a := &Attacher{
		consumer: c,
		repo:     repo,
		logger:   slog.Default(),
		warn:     func(string) {},
		gen:      map[string]uint64{},
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// AttachBIOS attaches p as the BIOS. If persist is true, the raw input bytes
// are stored uncompressed in the background.
func (a *Attacher) AttachBIOS(ctx context.Context, p Payload, persist bool) error {
	a.mx.Lock()
	defer a.mx.Unlock()

	if err := a.attach("BIOS", p, a.consumer.AttachBIOS); err != nil {
		return err
	}
	a.logger.Info("attached BIOS", "size", p.Len())

	if persist && a.repo != nil {
		a.persist(ctx, "BIOS", p.Bytes(), a.repo.SaveBIOS)
	}

	return nil
}

// AttachROM attaches p as the ROM. If persist is true, the consumer's
// canonical ROM copy is compressed and stored in the background.
func (a *Attacher) AttachROM(ctx context.Context, p Payload, persist bool) error {
	a.mx.Lock()
	defer a.mx.Unlock()

	if err := a.attach("ROM", p, a.consumer.AttachROM); err != nil {
		return err
	}
	canonical := a.consumer.ROM()
	a.logger.Info("attached ROM", "size", p.Len(), "canonical_size", len(canonical))

	if persist && a.repo != nil {
		a.persist(ctx, "ROM", canonical, a.repo.SaveROM)
	}

	return nil
}

// Restore attaches the stored BIOS and ROM without persisting them again.
// Assets that were never stored are skipped. It returns the names of the
// restored assets.
func (a *Attacher) Restore(ctx context.Context) ([]string, error) {
	if a.repo == nil {
		return nil, nil
	}

	restored := []string{}
	steps := []struct {
		name   string
		key    string
		attach func(context.Context, Payload, bool) error
	}{
		{"BIOS", asset.KeyBIOS, a.AttachBIOS},
		{"ROM", asset.KeyROM, a.AttachROM},
	}
	for _, step := range steps {
		blob, err := a.repo.Load(ctx, step.key)
		if errors.Is(err, store.ErrNotFound) {
			a.logger.Debug("no stored asset", "asset", step.name)
			continue
		}
		if err != nil {
			return restored, fmt.Errorf("failed loading stored %s: %w", step.name, err)
		}
		if err := step.attach(ctx, FromBytes(blob), false); err != nil {
			return restored, err
		}
		restored = append(restored, step.name)
	}

	return restored, nil
}

// Wait blocks until all background persistence has finished.
func (a *Attacher) Wait() {
	a.wg.Wait()
}

// attach calls fn with p in the representation the consumer prefers, and
// retries once with the other representation if it's rejected.
func (a *Attacher) attach(name string, p Payload, fn func(Payload) error) error {
	first := p.Kind()
	if ba, ok := a.consumer.(BytesAcceptor); ok {
		if ba.AcceptsBytes() {
			first = KindBytes
		} else {
			first = KindCodes
		}
	}

	err := fn(p.As(first))
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrRejectedInput) {
		return &ConsumerRejectedError{Asset: name, Err: err}
	}

	a.logger.Debug("consumer rejected input, retrying",
		"asset", name, "kind", first, "error", err)
	if err = fn(p.As(first.alternate())); err != nil {
		return &ConsumerRejectedError{Asset: name, Err: err}
	}

	return nil
}

// persist encodes and stores an asset in the background. Failures are
// reported as warnings, since the asset is already attached. Cancelling ctx
// doesn't abort the write, as the store drains queued writes on Close.
func (a *Attacher) persist(
	ctx context.Context, name string, blob []byte,
	save func([]byte) (*deferred.Result, error),
) {
	blob = append([]byte(nil), blob...)
	ctx = context.WithoutCancel(ctx)

	a.saveMx.Lock()
	a.gen[name]++
	gen := a.gen[name]
	a.saveMx.Unlock()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		err := func() error {
			a.saveMx.Lock()
			if a.gen[name] != gen {
				a.saveMx.Unlock()
				a.logger.Debug("skipped storing superseded asset", "asset", name)
				return errSuperseded
			}
			res, err := save(blob)
			a.saveMx.Unlock()
			if err != nil {
				return err
			}
			_, err = res.Wait(ctx)
			return err
		}()
		if errors.Is(err, errSuperseded) {
			return
		}
		if err != nil {
			a.logger.Warn("failed storing asset", "asset", name, "error", err)
			a.warn(fmt.Sprintf("Could not store %s: %s", name, err))
			return
		}
		a.logger.Debug("stored asset", "asset", name)
	}()
}

var errSuperseded = errors.New("superseded by a newer attach")
