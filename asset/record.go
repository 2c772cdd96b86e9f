package asset

import (
	"bytes"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"go.hackfix.me/romstash/codec"
)

// Record is the envelope stored for every asset. Data holds the portable text
// form of the (possibly compressed) blob.
type Record struct {
	Compression string    `cbor:"1,keyasint"`
	Data        string    `cbor:"2,keyasint"`
	Size        int       `cbor:"3,keyasint"`
	Digest      []byte    `cbor:"4,keyasint"`
	StoredAt    time.Time `cbor:"5,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic("asset: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("asset: CBOR decoder initialization failed: " + err.Error())
	}
}

// NewRecord builds the record of blob, compressed with alg.
func NewRecord(blob []byte, alg codec.Algorithm, now time.Time) (*Record, error) {
	text, err := codec.BlobToPortableText(blob, alg)
	if err != nil {
		return nil, err
	}
	digest := blake3.Sum256(blob)

	return &Record{
		Compression: alg.String(),
		Data:        text,
		Size:        len(blob),
		Digest:      digest[:],
		StoredAt:    now.UTC(),
	}, nil
}

// Blob decodes the record data and verifies it against the recorded size and
// digest.
func (r *Record) Blob() ([]byte, error) {
	alg, err := codec.ParseAlgorithm(r.Compression)
	if err != nil {
		return nil, &codec.CorruptDataError{Algorithm: codec.Algorithm(r.Compression), Err: err}
	}

	blob, err := codec.PortableTextToBlob(r.Data, alg)
	if err != nil {
		return nil, err
	}

	if len(blob) != r.Size {
		return nil, &codec.CorruptDataError{Algorithm: alg,
			Err: fmt.Errorf("decoded %d bytes, expected %d", len(blob), r.Size)}
	}
	digest := blake3.Sum256(blob)
	if !bytes.Equal(digest[:], r.Digest) {
		return nil, &codec.CorruptDataError{Algorithm: alg,
			Err: fmt.Errorf("digest mismatch")}
	}

	return blob, nil
}

// MarshalRecord encodes r as deterministic CBOR.
func MarshalRecord(r *Record) ([]byte, error) {
	return encMode.Marshal(r)
}

// UnmarshalRecord decodes a stored record. Anything that isn't a record is
// reported as a *codec.CorruptDataError.
func UnmarshalRecord(data []byte) (*Record, error) {
	r := &Record{}
	if err := decMode.Unmarshal(data, r); err != nil {
		return nil, &codec.CorruptDataError{Algorithm: "cbor", Err: err}
	}
	return r, nil
}
