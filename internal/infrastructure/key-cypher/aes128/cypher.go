package key_cypher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/scrypt"
)

const saltSize = 32

// AES128Cypher encrypts the serialized keys with AES-128 in GCM mode.
// The encryption key is derived from the password with scrypt and a
// random salt, prepended to the returned payload along with the nonce.
type AES128Cypher struct{}

func NewAES128Cypher() *AES128Cypher {
	return &AES128Cypher{}
}

func (c *AES128Cypher) Encrypt(keys, password []byte) ([]byte, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("missing keys")
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("missing password")
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// payload: salt || nonce || ciphertext
	return append(salt, gcm.Seal(nonce, nonce, keys, nil)...), nil
}

func (c *AES128Cypher) Decrypt(encryptedKeys, password []byte) ([]byte, error) {
	if len(encryptedKeys) <= saltSize {
		return nil, fmt.Errorf("invalid encrypted keys")
	}
	if len(password) == 0 {
		return nil, fmt.Errorf("missing password")
	}

	salt := encryptedKeys[:saltSize]
	data := encryptedKeys[saltSize:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	if len(data) <= gcm.NonceSize() {
		return nil, fmt.Errorf("invalid encrypted keys")
	}
	nonce := data[:gcm.NonceSize()]
	body := data[gcm.NonceSize():]

	keys, err := gcm.Open(nil, nonce, body, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid password")
	}
	return keys, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, 32768, 8, 1, 16)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
