package encryption

import (
	"crypto/hkdf"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for password derivation.
const (
	argonMemory      = 64 * 1024 // 64 MiB
	argonIterations  = 3
	argonParallelism = 2
)

// DeriveMasterKey stretches a user password into a 32-byte master key with
// Argon2id. The same password and salt always give the same key.
func DeriveMasterKey(password, salt []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, fmt.Errorf("password cannot be empty")
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	return argon2.IDKey(password, salt, argonIterations, argonMemory, argonParallelism, KeySize), nil
}

// DerivePartKeyIV derives a unique key and IV for one part using HKDF-SHA256.
//
// Each (masterKey, salt, partIndex) tuple produces a distinct (key, iv) pair.
// Derivation is deterministic, so a download can rebuild the keys from the
// password and the salt stored in the manifest.
func DerivePartKeyIV(masterKey, salt []byte, partIndex int64) (key []byte, iv []byte, err error) {
	if len(masterKey) != KeySize {
		return nil, nil, fmt.Errorf("master key must be %d bytes, got %d", KeySize, len(masterKey))
	}
	if len(salt) != SaltSize {
		return nil, nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}
	if partIndex < 0 {
		return nil, nil, fmt.Errorf("part index must be non-negative, got %d", partIndex)
	}

	// info = salt || partIndex (little-endian uint64)
	info := make([]byte, SaltSize+8)
	copy(info[:SaltSize], salt)
	binary.LittleEndian.PutUint64(info[SaltSize:], uint64(partIndex))

	derived, err := hkdf.Key(sha256.New, masterKey, nil, string(info), KeySize+IVSize)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive key material: %w", err)
	}
	return derived[:KeySize], derived[KeySize:], nil
}
