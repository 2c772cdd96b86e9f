// Package emulator holds the assets attached to an emulator core. It doesn't
// emulate anything; it validates and keeps the canonical BIOS and ROM images.
package emulator

import (
	"errors"
	"fmt"
	"sync"

	"go.hackfix.me/romstash/attach"
)

const (
	// BIOSSize is the exact size of a GBA BIOS image.
	BIOSSize = 16 * 1024
	// MaxROMSize is the largest cartridge ROM the core can map.
	MaxROMSize = 32 * 1024 * 1024
)

var (
	ErrBIOSSize = fmt.Errorf("BIOS must be exactly %d bytes", BIOSSize)
	ErrROMEmpty = errors.New("ROM is empty")
	ErrROMSize  = fmt.Errorf("ROM exceeds %d bytes", MaxROMSize)
)

// Core keeps the attached BIOS and ROM.
type Core struct {
	mx          sync.RWMutex
	bios        []byte
	rom         []byte
	typedBuffer bool
}

var (
	_ attach.Consumer      = &Core{}
	_ attach.BytesAcceptor = &Core{}
)

// Option is a function that allows configuring the Core.
type Option func(*Core)

// WithTypedBuffers sets whether the core accepts typed byte buffers. When
// disabled, only numeric arrays are accepted.
func WithTypedBuffers(enabled bool) Option {
	return func(c *Core) {
		c.typedBuffer = enabled
	}
}

// New returns an empty core.
func New(opts ...Option) *Core {
	c := &Core{typedBuffer: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AcceptsBytes reports whether typed byte buffers are accepted.
func (c *Core) AcceptsBytes() bool {
	return c.typedBuffer
}

// AttachBIOS validates and stores a BIOS image.
func (c *Core) AttachBIOS(p attach.Payload) error {
	data, err := c.decode(p)
	if err != nil {
		return err
	}
	if len(data) != BIOSSize {
		return fmt.Errorf("%w; got %d", ErrBIOSSize, len(data))
	}

	c.mx.Lock()
	c.bios = data
	c.mx.Unlock()

	return nil
}

// AttachROM validates and stores a ROM image. The stored copy is zero-padded
// to a 4 byte boundary, since the cartridge bus reads whole words.
func (c *Core) AttachROM(p attach.Payload) error {
	data, err := c.decode(p)
	if err != nil {
		return err
	}
	switch {
	case len(data) == 0:
		return ErrROMEmpty
	case len(data) > MaxROMSize:
		return fmt.Errorf("%w; got %d", ErrROMSize, len(data))
	}

	if rem := len(data) % 4; rem != 0 {
		data = append(data, make([]byte, 4-rem)...)
	}

	c.mx.Lock()
	c.rom = data
	c.mx.Unlock()

	return nil
}

// BIOS returns a copy of the attached BIOS, or nil.
func (c *Core) BIOS() []byte {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return clone(c.bios)
}

// ROM returns a copy of the canonical attached ROM, or nil.
func (c *Core) ROM() []byte {
	c.mx.RLock()
	defer c.mx.RUnlock()
	return clone(c.rom)
}

func (c *Core) decode(p attach.Payload) ([]byte, error) {
	if p.Kind() == attach.KindBytes && !c.typedBuffer {
		return nil, fmt.Errorf("typed buffers are not supported: %w", attach.ErrRejectedInput)
	}
	return clone(p.Bytes()), nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
