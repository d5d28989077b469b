package w3s

import (
	"bytes"
	"fmt"

	encryption "github.com/w3s-cli/w3s/internal/crypto"
)

// partCodec turns plaintext parts into stored parts and back. Compression
// runs before encryption.
type partCodec struct {
	client   *Client
	compress bool
	cipher   *encryption.PartCipher // nil when not encrypted
}

// encode returns the stored form of plain. The result never shares memory
// with plain, so plain can go back to its pool while the result is in flight.
func (pc partCodec) encode(index int64, plain []byte) ([]byte, error) {
	if !pc.compress && pc.cipher == nil {
		return bytes.Clone(plain), nil
	}
	data := plain
	if pc.compress {
		data = pc.client.encoder.EncodeAll(plain, make([]byte, 0, len(plain)/2))
	}
	if pc.cipher != nil {
		return pc.cipher.EncryptPart(index, data)
	}
	return data, nil
}

func (pc partCodec) decode(index int64, stored []byte) ([]byte, error) {
	data := stored
	if pc.cipher != nil {
		plain, err := pc.cipher.DecryptPart(index, data)
		if err != nil {
			return nil, err
		}
		data = plain
	}
	if pc.compress {
		plain, err := pc.client.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress part %d: %w", index, err)
		}
		data = plain
	}
	return data, nil
}
