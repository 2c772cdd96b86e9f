package codec

import "encoding/base64"

// BytesToText encodes data as padded standard base64. The encoding never
// reinterprets bytes as characters, so every byte sequence survives a round
// trip through TextToBytes.
func BytesToText(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// TextToBytes reverses BytesToText.
func TextToBytes(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, &CorruptDataError{Algorithm: "base64", Err: err}
	}
	return data, nil
}

// BlobToPortableText compresses data with alg and encodes the result as text.
func BlobToPortableText(data []byte, alg Algorithm) (string, error) {
	compressed, err := Compress(data, alg)
	if err != nil {
		return "", err
	}
	return BytesToText(compressed), nil
}

// PortableTextToBlob reverses BlobToPortableText.
func PortableTextToBlob(text string, alg Algorithm) ([]byte, error) {
	compressed, err := TextToBytes(text)
	if err != nil {
		return nil, err
	}
	return Decompress(compressed, alg)
}
