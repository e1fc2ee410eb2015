// Package cryptox contains the primitives used to protect credentials at
// rest: Argon2id key derivation from the per-install secret, and AES-GCM
// sealing of JSON-serialized values.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"

	"github.com/karim1349/app-psy-sophia-sub000/internal/common"
	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches the install secret into a 256-bit AES key using
// Argon2id. The same secret and salt always yield the same key.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// Seal serializes v to JSON and encrypts it with AES-GCM under key.
//
// The key must be a valid AES key length (16, 24, or 32 bytes). A fresh
// random 12-byte nonce is generated on every call and returned alongside
// the ciphertext; both are required to open the value again.
func Seal(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	nonce = common.GenerateRandByteArray(aesgcm.NonceSize())
	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)

	return ciphertext, nonce, nil
}

// Open decrypts ciphertext produced by Seal and unmarshals the resulting
// JSON into v. The key and nonce must match the ones used for sealing;
// any tampering with the ciphertext makes GCM authentication fail.
func Open(ciphertext, nonce, key []byte, v any) error {
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}

	return json.Unmarshal(plaintext, v)
}
