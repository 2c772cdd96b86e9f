package codec

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBlobs() map[string][]byte {
	rnd := rand.New(rand.NewSource(1))
	random := make([]byte, 64*1024)
	rnd.Read(random)

	return map[string][]byte{
		"empty":      {},
		"zero":       {0x00},
		"zeros":      make([]byte, 4096),
		"control":    {0x00, 0x01, 0x0a, 0x0d, 0x1b, 0x7f, 0x80, 0xff, 0x00},
		"repetitive": bytes.Repeat([]byte("ARM7TDMI\x00"), 1000),
		"random":     random,
	}
}

func TestCompressRoundTrip(t *testing.T) {
	t.Parallel()

	for _, alg := range []Algorithm{None, Gzip, Deflate, Zstd, LZ4} {
		for name, blob := range testBlobs() {
			alg, blob := alg, blob
			t.Run(fmt.Sprintf("%s/%s", alg, name), func(t *testing.T) {
				t.Parallel()
				compressed, err := Compress(blob, alg)
				require.NoError(t, err)

				again, err := Compress(blob, alg)
				require.NoError(t, err)
				assert.Equal(t, compressed, again, "compression must be deterministic")

				if alg != None {
					assert.NotEmpty(t, compressed, "an empty payload still needs a frame")
				}

				out, err := Decompress(compressed, alg)
				require.NoError(t, err)
				assert.Equal(t, blob, out)
			})
		}
	}
}

func TestCompressShrinksRepetitiveData(t *testing.T) {
	t.Parallel()

	blob := testBlobs()["repetitive"]
	for _, alg := range []Algorithm{Gzip, Deflate, Zstd, LZ4} {
		out, err := Compress(blob, alg)
		require.NoError(t, err)
		assert.Less(t, len(out), len(blob)/4, alg.String())
	}
}

func TestDecompressCorrupt(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		alg  Algorithm
		data []byte
	}{
		{name: "gzip", alg: Gzip, data: []byte("definitely not gzip")},
		{name: "deflate", alg: Deflate, data: []byte{0xff, 0xff, 0xff, 0xff}},
		{name: "zstd", alg: Zstd, data: []byte("definitely not zstd")},
		{name: "lz4", alg: LZ4, data: []byte("definitely not lz4")},
		{name: "gzip/empty", alg: Gzip, data: []byte{}},
		{name: "deflate/empty", alg: Deflate, data: []byte{}},
		{name: "zstd/empty", alg: Zstd, data: []byte{}},
		{name: "lz4/empty", alg: LZ4, data: nil},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Decompress(tc.data, tc.alg)
			var cerr *CorruptDataError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tc.alg, cerr.Algorithm)
		})
	}

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()
		compressed, err := Compress(testBlobs()["random"], Gzip)
		require.NoError(t, err)

		_, err = Decompress(compressed[:len(compressed)/2], Gzip)
		var cerr *CorruptDataError
		require.ErrorAs(t, err, &cerr)
	})
}

func TestTextRoundTrip(t *testing.T) {
	t.Parallel()

	for name, blob := range testBlobs() {
		blob := blob
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			text := BytesToText(blob)
			out, err := TextToBytes(text)
			require.NoError(t, err)
			assert.Equal(t, len(blob), len(out))
			assert.Equal(t, blob, out)
		})
	}

	_, err := TextToBytes("not*base64")
	var cerr *CorruptDataError
	assert.ErrorAs(t, err, &cerr)
}

func TestPortableText(t *testing.T) {
	t.Parallel()

	blob := testBlobs()["control"]
	text, err := BlobToPortableText(blob, Gzip)
	require.NoError(t, err)

	out, err := PortableTextToBlob(text, Gzip)
	require.NoError(t, err)
	assert.Equal(t, blob, out)

	_, err = PortableTextToBlob(BytesToText([]byte("raw")), Gzip)
	var cerr *CorruptDataError
	assert.ErrorAs(t, err, &cerr)
}

func TestParseAlgorithm(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"none", "gzip", "deflate", "zstd", "lz4"} {
		alg, err := ParseAlgorithm(name)
		require.NoError(t, err)
		assert.Equal(t, name, alg.String())
	}

	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, None, alg)

	_, err = ParseAlgorithm("brotli")
	assert.EqualError(t, err, "unknown compression algorithm 'brotli'")
}
