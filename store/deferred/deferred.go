// Package deferred provides an asset store that can be used immediately
// after construction, before its backing database has finished opening.
//
// Operations issued while the database is not ready are kept in a FIFO list
// and replayed in submission order once it opens. A single executor goroutine
// owns the backend, so operations submitted while the list is draining run
// after it, never interleaved with it. If the database fails to open, every
// queued and future operation fails with a *StoreUnavailableError.
package deferred

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.hackfix.me/romstash/store"
)

// State is the lifecycle state of the backing connection.
type State int

const (
	Unopened State = iota
	Opening
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Unopened:
		return "unopened"
	case Opening:
		return "opening"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrClosed is returned for operations submitted after Close.
var ErrClosed = errors.New("asset store is closed")

// Opener opens or creates the backing database. It is called exactly once.
type Opener func(ctx context.Context) (store.Backend, error)

// Store is a deferred-ready key-value store.
type Store struct {
	opener Opener
	logger *slog.Logger

	openOnce sync.Once
	ready    chan struct{} // closed on Ready or Failed
	done     chan struct{} // closed when the executor exits

	mx      sync.Mutex
	cond    *sync.Cond
	state   State
	openErr error
	closing bool
	pending []*operation
	backend store.Backend
}

// Option is a function that allows configuring the store.
type Option func(*Store)

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns an unopened store. Operations can be issued right away; they
// are queued until Open is called and the backend becomes ready.
func New(opener Opener, opts ...Option) *Store {
	s := &Store{
		opener: opener,
		logger: slog.Default(),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mx)
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open returns a new store and starts opening its backend.
func Open(ctx context.Context, opener Opener, opts ...Option) *Store {
	s := New(opener, opts...)
	s.Open(ctx)
	return s
}

// Open starts opening the backend asynchronously. Only the first call has
// any effect.
func (s *Store) Open(ctx context.Context) {
	s.openOnce.Do(func() {
		s.mx.Lock()
		s.state = Opening
		s.mx.Unlock()

		go s.run(ctx)
	})
}

// State returns the current state of the backing connection.
func (s *Store) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

// Ready returns a channel that's closed once the backend is either ready or
// has failed to open.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Put stores value under key. The returned Result can be ignored; it resolves
// once the write is committed, or with the error that prevented it.
func (s *Store) Put(key string, value []byte) *Result {
	v := make([]byte, len(value))
	copy(v, value)
	return s.submit(&operation{kind: opPut, key: key, value: v})
}

// Get retrieves the value stored under key. A missing key resolves with an
// error wrapping store.ErrNotFound.
func (s *Store) Get(key string) *Result {
	return s.submit(&operation{kind: opGet, key: key})
}

// GetFunc is like Get, but calls fn with the outcome instead. fn runs on its
// own goroutine, so it may issue further store operations.
func (s *Store) GetFunc(key string, fn func(value []byte, err error)) {
	res := s.Get(key)
	go func() {
		<-res.done
		fn(res.value, res.err)
	}()
}

// Delete removes key.
func (s *Store) Delete(key string) *Result {
	return s.submit(&operation{kind: opDelete, key: key})
}

// List resolves with the keys that start with prefix.
func (s *Store) List(prefix string) *Result {
	return s.submit(&operation{kind: opList, key: prefix})
}

// Close waits for all submitted operations to finish, and closes the
// backend. Operations submitted afterwards fail with ErrClosed. If the store
// was never opened, pending operations fail with ErrClosed.
func (s *Store) Close() error {
	s.mx.Lock()
	if s.closing {
		s.mx.Unlock()
		<-s.done
		return nil
	}
	s.closing = true
	s.cond.Broadcast()
	s.mx.Unlock()

	launched := true
	s.openOnce.Do(func() { launched = false })
	if !launched {
		s.failPending(ErrClosed)
		close(s.done)
		return nil
	}

	<-s.done

	s.mx.Lock()
	defer s.mx.Unlock()
	if s.backend != nil {
		err := s.backend.Close()
		s.backend = nil
		return err
	}

	return nil
}

func (s *Store) submit(op *operation) *Result {
	op.res = newResult()

	s.mx.Lock()
	defer s.mx.Unlock()

	switch {
	case s.closing:
		op.res.resolve(nil, nil, ErrClosed)
	case s.state == Failed:
		op.res.resolve(nil, nil, &StoreUnavailableError{Err: s.openErr})
	default:
		s.pending = append(s.pending, op)
		if s.state == Ready {
			s.cond.Signal()
		}
	}

	return op.res
}

// run opens the backend, and then executes pending operations in order until
// the store is closed.
func (s *Store) run(ctx context.Context) {
	defer close(s.done)

	s.logger.Debug("opening asset store")
	backend, err := s.opener(ctx)

	s.mx.Lock()
	if err != nil {
		s.state = Failed
		s.openErr = err
		s.mx.Unlock()
		close(s.ready)

		s.logger.Error("failed opening asset store", "error", err)
		s.failPending(&StoreUnavailableError{Err: err})
		return
	}
	s.backend = backend
	s.state = Ready
	queued := len(s.pending)
	s.mx.Unlock()
	close(s.ready)

	s.logger.Debug("asset store ready", "queued_operations", queued)

	for {
		s.mx.Lock()
		for len(s.pending) == 0 && !s.closing {
			s.cond.Wait()
		}
		batch := s.pending
		s.pending = nil
		s.mx.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, op := range batch {
			op.exec(backend)
		}
	}
}

func (s *Store) failPending(err error) {
	s.mx.Lock()
	batch := s.pending
	s.pending = nil
	s.mx.Unlock()

	for _, op := range batch {
		op.res.resolve(nil, nil, err)
	}
}
