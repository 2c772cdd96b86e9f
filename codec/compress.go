package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Algorithm identifies the compression format of a stored payload. The same
// identifier must be passed to Decompress.
type Algorithm string

const (
	None    Algorithm = "none"
	Gzip    Algorithm = "gzip"
	Deflate Algorithm = "deflate"
	Zstd    Algorithm = "zstd"
	LZ4     Algorithm = "lz4"
)

// DefaultAlgorithm is used for ROM payloads.
const DefaultAlgorithm = Gzip

func (a Algorithm) String() string {
	return string(a)
}

// ParseAlgorithm returns the Algorithm with the given name.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch alg := Algorithm(name); alg {
	case None, Gzip, Deflate, Zstd, LZ4:
		return alg, nil
	case "":
		return None, nil
	default:
		return "", fmt.Errorf("unknown compression algorithm '%s'", name)
	}
}

// errEmptyStream is returned for zero-length input, which is never a
// complete frame. Empty payloads still compress to a non-empty frame.
var errEmptyStream = errors.New("empty input is not a valid stream")

// zstd encoders and decoders are safe for concurrent use, so a single pair
// is shared by all callers.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		panic("codec: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		panic("codec: zstd decoder initialization failed: " + err.Error())
	}
}

// Compress returns data compressed with alg. The output is a complete,
// independently decompressible stream, and the same input always produces
// the same output.
func Compress(data []byte, alg Algorithm) ([]byte, error) {
	switch alg {
	case None:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case Gzip:
		return compressStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, gzip.DefaultCompression)
		})
	case Deflate:
		return compressStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, flate.DefaultCompression)
		})
	case Zstd:
		return zstdEncoder.EncodeAll(data, nil), nil
	case LZ4:
		return compressStream(data, func(w io.Writer) (io.WriteCloser, error) {
			return lz4.NewWriter(w), nil
		})
	default:
		return nil, fmt.Errorf("unsupported compression algorithm '%s'", alg)
	}
}

// Decompress reverses Compress. It returns a *CorruptDataError if data is not
// a valid alg stream.
func Decompress(data []byte, alg Algorithm) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch alg {
	case None:
		out = make([]byte, len(data))
		copy(out, data)
	case Gzip:
		var zr *gzip.Reader
		zr, err = gzip.NewReader(bytes.NewReader(data))
		if err == nil {
			out, err = readAllClose(zr)
		}
	case Deflate:
		out, err = readAllClose(flate.NewReader(bytes.NewReader(data)))
	case Zstd:
		if len(data) == 0 {
			err = errEmptyStream
			break
		}
		out, err = zstdDecoder.DecodeAll(data, nil)
	case LZ4:
		if len(data) == 0 {
			err = errEmptyStream
			break
		}
		out, err = io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unsupported compression algorithm '%s'", alg)
	}

	if err != nil {
		return nil, &CorruptDataError{Algorithm: alg, Err: err}
	}
	if out == nil {
		out = []byte{}
	}

	return out, nil
}

func compressStream(data []byte, newWriter func(io.Writer) (io.WriteCloser, error)) ([]byte, error) {
	var buf bytes.Buffer
	w, err := newWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed creating compressor: %w", err)
	}
	if _, err = w.Write(data); err != nil {
		return nil, fmt.Errorf("failed compressing data: %w", err)
	}
	if err = w.Close(); err != nil {
		return nil, fmt.Errorf("failed flushing compressor: %w", err)
	}

	return buf.Bytes(), nil
}

func readAllClose(rc io.ReadCloser) ([]byte, error) {
	out, err := io.ReadAll(rc)
	if cerr := rc.Close(); err == nil {
		err = cerr
	}
	return out, err
}
