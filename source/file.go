package source

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mandelsoft/vfs/pkg/vfs"
	"golang.org/x/text/encoding/charmap"

	"go.hackfix.me/romstash/attach"
)

// Strategy reads the file at path into a payload.
type Strategy func(fs vfs.FileSystem, path string) (attach.Payload, error)

// Loader reads asset files, trying each of its strategies in order.
type Loader struct {
	fs         vfs.FileSystem
	strategies []Strategy
	logger     *slog.Logger
}

// NewLoader returns a Loader reading from fs. Without strategies, it reads
// whole files as binary, and falls back to ReadCharCodes.
func NewLoader(fs vfs.FileSystem, logger *slog.Logger, strategies ...Strategy) *Loader {
	if len(strategies) == 0 {
		strategies = []Strategy{ReadBinary, ReadCharCodes}
	}
	return &Loader{fs: fs, strategies: strategies, logger: logger}
}

// LoadLast loads the last of paths. This mirrors picking several files, where
// only the most recent selection counts.
func (l *Loader) LoadLast(paths []string) (attach.Payload, error) {
	if len(paths) == 0 {
		return attach.Payload{}, errors.New("no file selected")
	}
	return l.Load(paths[len(paths)-1])
}

// Load reads the file at path. If every strategy fails, it returns a
// *DecodeError wrapping all failures.
func (l *Loader) Load(path string) (attach.Payload, error) {
	var errs []error
	for i, strategy := range l.strategies {
		p, err := strategy(l.fs, path)
		if err == nil {
			return p, nil
		}
		l.logger.Debug("file read strategy failed", "path", path, "strategy", i, "error", err)
		errs = append(errs, err)
	}

	return attach.Payload{}, &DecodeError{Source: path, Err: errors.Join(errs...)}
}

// ReadBinary reads the whole file as a typed byte buffer.
func ReadBinary(fs vfs.FileSystem, path string) (attach.Payload, error) {
	f, err := fs.Open(path)
	if err != nil {
		return attach.Payload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return attach.Payload{}, fmt.Errorf("failed reading file: %w", err)
	}

	return attach.FromBytes(data), nil
}

// ReadCharCodes reads the file as x-user-defined text, and keeps the low 8
// bits of every character code.
func ReadCharCodes(fs vfs.FileSystem, path string) (attach.Payload, error) {
	f, err := fs.Open(path)
	if err != nil {
		return attach.Payload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return attach.Payload{}, fmt.Errorf("failed reading file: %w", err)
	}

	codes, err := TextCodes(data)
	if err != nil {
		return attach.Payload{}, err
	}

	return attach.FromCodes(codes), nil
}

// TextCodes decodes data with the x-user-defined charset and returns the
// code of every character masked to 8 bits. The charset maps each byte to
// exactly one character (0x80-0xFF to U+F780-U+F7FF), so the codes are the
// original bytes.
func TextCodes(data []byte) ([]int, error) {
	text, err := charmap.XUserDefined.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed decoding text: %w", err)
	}

	codes := make([]int, 0, len(data))
	for _, c := range string(text) {
		codes = append(codes, int(c)&0xFF)
	}

	return codes, nil
}
