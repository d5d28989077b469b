package encryption

import (
	"fmt"
)

// PartCipher encrypts and decrypts the parts of one file. The master key is
// derived once from the password and salt; every part gets its own key and IV.
type PartCipher struct {
	masterKey []byte
	salt      []byte
}

// NewPartCipher derives the master key for password and salt.
func NewPartCipher(password, salt []byte) (*PartCipher, error) {
	masterKey, err := DeriveMasterKey(password, salt)
	if err != nil {
		return nil, err
	}
	saltCopy := make([]byte, len(salt))
	copy(saltCopy, salt)
	return &PartCipher{masterKey: masterKey, salt: saltCopy}, nil
}

// Salt returns a copy of the salt, for storage in the file manifest.
func (c *PartCipher) Salt() []byte {
	out := make([]byte, len(c.salt))
	copy(out, c.salt)
	return out
}

// EncryptPart encrypts the plaintext of part partIndex.
func (c *PartCipher) EncryptPart(partIndex int64, plaintext []byte) ([]byte, error) {
	key, iv, err := DerivePartKeyIV(c.masterKey, c.salt, partIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key for part %d: %w", partIndex, err)
	}
	ciphertext, err := Encrypt(key, iv, plaintext)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt part %d: %w", partIndex, err)
	}
	return ciphertext, nil
}

// DecryptPart decrypts the ciphertext of part partIndex.
func (c *PartCipher) DecryptPart(partIndex int64, ciphertext []byte) ([]byte, error) {
	key, iv, err := DerivePartKeyIV(c.masterKey, c.salt, partIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key for part %d: %w", partIndex, err)
	}
	plaintext, err := Decrypt(key, iv, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt part %d: %w", partIndex, err)
	}
	return plaintext, nil
}
