package application_test

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/vulpemventures/lagoon/internal/core/domain"
)

// domain.IKeyStore
type inMemoryKeyStore struct {
	keys string
	lock *sync.RWMutex
}

func newInMemoryKeyStore() domain.IKeyStore {
	return &inMemoryKeyStore{
		lock: &sync.RWMutex{},
	}
}

func (s *inMemoryKeyStore) Set(keys string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.keys = keys
}

func (s *inMemoryKeyStore) Unset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.keys = ""
}

func (s *inMemoryKeyStore) IsSet() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return len(s.keys) > 0
}

func (s *inMemoryKeyStore) Get() string {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.keys
}

// domain.IKeyCypher. A reversible fake, the plaintext is prefixed with the
// hex encoded password so that decrypting with another one fails.
type fakeKeyCypher struct{}

func (c fakeKeyCypher) Encrypt(keys, password []byte) ([]byte, error) {
	prefix := []byte(hex.EncodeToString(password) + ":")
	return append(prefix, keys...), nil
}

func (c fakeKeyCypher) Decrypt(encryptedKeys, password []byte) ([]byte, error) {
	prefix := []byte(hex.EncodeToString(password) + ":")
	if !bytes.HasPrefix(encryptedKeys, prefix) {
		return nil, fmt.Errorf("invalid password")
	}
	return bytes.TrimPrefix(encryptedKeys, prefix), nil
}

func h2b(str string) []byte {
	buf, _ := hex.DecodeString(str)
	return buf
}
