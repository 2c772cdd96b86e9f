package app

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"

	actx "go.hackfix.me/romstash/app/context"
)

type testApp struct {
	*App
	fs             vfs.FileSystem
	stdout, stderr *syncBuffer
	env            *mockEnv
}

func newTestApp(ctx context.Context, options ...Option) *testApp {
	var (
		stdout, stderr = &syncBuffer{}, &syncBuffer{}
		fs             = memoryfs.New()
		env            = &mockEnv{env: map[string]string{}}
	)

	opts := []Option{
		WithContext(ctx),
		WithFDs(&bytes.Buffer{}, stdout, stderr),
		WithFS(fs),
		WithEnv(env),
		WithLogger(false, false),
	}
	opts = append(opts, options...)

	return &testApp{
		App: New(opts...), fs: fs,
		stdout: stdout, stderr: stderr, env: env,
	}
}

// Run resets the captured output, and runs the command with args.
func (ta *testApp) Run(args ...string) error {
	ta.stdout.Reset()
	ta.stderr.Reset()
	return ta.App.Run(args)
}

func (ta *testApp) writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	f, err := ta.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = f.Write(data); err != nil {
		t.Fatal(err)
	}
	if err = f.Close(); err != nil {
		t.Fatal(err)
	}
}

func (ta *testApp) readFile(t *testing.T, path string) []byte {
	t.Helper()
	f, err := ta.fs.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

type mockEnv struct {
	mx  sync.RWMutex
	env map[string]string
}

var _ actx.Environment = &mockEnv{}

func (me *mockEnv) Get(key string) string {
	me.mx.RLock()
	defer me.mx.RUnlock()
	return me.env[key]
}

func (me *mockEnv) Set(key, val string) error {
	me.mx.Lock()
	defer me.mx.Unlock()
	me.env[key] = val
	return nil
}

// syncBuffer is a bytes.Buffer safe for concurrent use, since the logger and
// background persistence may write to it.
type syncBuffer struct {
	mx  sync.Mutex
	buf bytes.Buffer
}

func (sb *syncBuffer) Write(p []byte) (int, error) {
	sb.mx.Lock()
	defer sb.mx.Unlock()
	return sb.buf.Write(p)
}

func (sb *syncBuffer) String() string {
	sb.mx.Lock()
	defer sb.mx.Unlock()
	return sb.buf.String()
}

func (sb *syncBuffer) Bytes() []byte {
	sb.mx.Lock()
	defer sb.mx.Unlock()
	return bytes.Clone(sb.buf.Bytes())
}

func (sb *syncBuffer) Reset() {
	sb.mx.Lock()
	defer sb.mx.Unlock()
	sb.buf.Reset()
}

// newTestContext returns a context that times out after timeout, and an
// assertion handling function that cancels the context prematurely and fails
// the test if the assertion fails. This is done to avoid waiting for the
// context timeout to be reached.
func newTestContext(t *testing.T, timeout time.Duration) (
	ctx context.Context, cancelCtx func(), assertHandler func(bool),
) {
	ctx, cancelCtx = context.WithTimeout(context.Background(), timeout)
	assertHandler = func(success bool) {
		if !success {
			cancelCtx()
			t.FailNow()
		}
	}

	return
}
