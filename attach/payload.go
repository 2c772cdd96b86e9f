package attach

// Kind is the representation of a Payload.
type Kind int

const (
	// KindBytes is a typed byte buffer.
	KindBytes Kind = iota
	// KindCodes is a plain numeric array, as produced by legacy
	// character-code extraction.
	KindCodes
)

func (k Kind) String() string {
	if k == KindCodes {
		return "codes"
	}
	return "bytes"
}

// Payload is raw asset data, either as a typed byte buffer or as a plain
// numeric array. Both forms describe the same bytes.
type Payload struct {
	kind  Kind
	bytes []byte
	codes []int
}

// FromBytes returns a typed buffer payload.
func FromBytes(b []byte) Payload {
	return Payload{kind: KindBytes, bytes: b}
}

// FromCodes returns a numeric array payload. Only the low 8 bits of each code
// are significant.
func FromCodes(codes []int) Payload {
	return Payload{kind: KindCodes, codes: codes}
}

// Kind returns the representation of the payload.
func (p Payload) Kind() Kind {
	return p.kind
}

// Len returns the number of bytes in the payload.
func (p Payload) Len() int {
	if p.kind == KindCodes {
		return len(p.codes)
	}
	return len(p.bytes)
}

// Bytes returns the payload as bytes, masking codes to 8 bits.
func (p Payload) Bytes() []byte {
	if p.kind == KindBytes {
		return p.bytes
	}
	out := make([]byte, len(p.codes))
	for i, c := range p.codes {
		out[i] = byte(c & 0xFF)
	}
	return out
}

// Codes returns the payload as a numeric array.
func (p Payload) Codes() []int {
	if p.kind == KindCodes {
		return p.codes
	}
	out := make([]int, len(p.bytes))
	for i, b := range p.bytes {
		out[i] = int(b)
	}
	return out
}

// As returns the payload converted to kind k.
func (p Payload) As(k Kind) Payload {
	if p.kind == k {
		return p
	}
	if k == KindCodes {
		return FromCodes(p.Codes())
	}
	return FromBytes(p.Bytes())
}

func (k Kind) alternate() Kind {
	if k == KindCodes {
		return KindBytes
	}
	return KindCodes
}
