package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// Maximum size of each encrypted chunk of data. NaCl is recommended for
	// encrypting "small" messages, so large data is split into 16KB chunks.
	chunkSize = 16 * 1024 // 16KB
	nonceSize = 24
	keySize   = 32

	sealedChunkSize = nonceSize + chunkSize + secretbox.Overhead
)

// EncryptSym performs symmetric encryption of the plaintext data using NaCl
// primitives (XSalsa20 and Poly1305). Each chunk carries its own nonce.
func EncryptSym(plaintext []byte, secretKey *[keySize]byte) ([]byte, error) {
	chunks := (len(plaintext) + chunkSize - 1) / chunkSize
	out := make([]byte, 0, len(plaintext)+chunks*(nonceSize+secretbox.Overhead))

	for start := 0; start < len(plaintext); start += chunkSize {
		end := min(start+chunkSize, len(plaintext))

		nonce, err := generateNonce()
		if err != nil {
			return nil, fmt.Errorf("failed generating nonce: %w", err)
		}

		out = append(out, nonce[:]...)
		out = secretbox.Seal(out, plaintext[start:end], nonce, secretKey)
	}

	return out, nil
}

// DecryptSym reverses EncryptSym.
func DecryptSym(ciphertext []byte, secretKey *[keySize]byte) ([]byte, error) {
	out := make([]byte, 0, len(ciphertext))

	for start := 0; start < len(ciphertext); start += sealedChunkSize {
		end := min(start+sealedChunkSize, len(ciphertext))
		chunk := ciphertext[start:end]
		if len(chunk) < nonceSize+secretbox.Overhead {
			return nil, errors.New("truncated encrypted chunk")
		}

		var nonce [nonceSize]byte
		copy(nonce[:], chunk[:nonceSize])

		var ok bool
		out, ok = secretbox.Open(out, chunk[nonceSize:], &nonce, secretKey)
		if !ok {
			return nil, errors.New("failed decrypting chunk")
		}
	}

	return out, nil
}

// DecodeHexKey decodes and validates a hex-encoded 32 byte encryption key.
func DecodeHexKey(keyHex string) (*[keySize]byte, error) {
	keyDec, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, err
	}
	if len(keyDec) != keySize {
		return nil, fmt.Errorf("expected key length of %d; got %d", keySize, len(keyDec))
	}

	var key [keySize]byte
	copy(key[:], keyDec)

	return &key, nil
}

func generateNonce() (*[nonceSize]byte, error) {
	nonce := new([nonceSize]byte)
	_, err := io.ReadFull(rand.Reader, nonce[:])
	if err != nil {
		return nil, err
	}

	return nonce, nil
}
