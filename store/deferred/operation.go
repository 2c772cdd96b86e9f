package deferred

import (
	"context"

	"go.hackfix.me/romstash/store"
)

type opKind int

const (
	opPut opKind = iota
	opGet
	opDelete
	opList
)

type operation struct {
	kind  opKind
	key   string
	value []byte
	res   *Result
}

func (op *operation) exec(b store.Backend) {
	switch op.kind {
	case opPut:
		op.res.resolve(nil, nil, b.Set(op.key, op.value))
	case opGet:
		val, err := b.Get(op.key)
		op.res.resolve(val, nil, err)
	case opDelete:
		op.res.resolve(nil, nil, b.Delete(op.key))
	case opList:
		keys, err := b.List(op.key)
		op.res.resolve(nil, keys, err)
	}
}

// Result is the eventual outcome of a store operation.
type Result struct {
	done  chan struct{}
	value []byte
	keys  []string
	err   error
}

func newResult() *Result {
	return &Result{done: make(chan struct{})}
}

func (r *Result) resolve(value []byte, keys []string, err error) {
	r.value, r.keys, r.err = value, keys, err
	close(r.done)
}

// Done returns a channel that's closed once the operation has finished.
func (r *Result) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the operation finishes or ctx is done, and returns the
// value read by a Get operation. Cancelling ctx only stops the wait; the
// operation itself still runs.
func (r *Result) Wait(ctx context.Context) ([]byte, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Keys blocks like Wait, and returns the keys found by a List operation.
func (r *Result) Keys(ctx context.Context) ([]string, error) {
	select {
	case <-r.done:
		return r.keys, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Err returns the error of a finished operation, or nil if it hasn't
// finished yet.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
