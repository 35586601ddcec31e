package key_store

import (
	"github.com/vulpemventures/lagoon/internal/config"
)

const (
	keysKey = "KEYS"
)

type KeysInMemoryStore struct{}

func NewInMemoryKeyStore() *KeysInMemoryStore {
	return &KeysInMemoryStore{}
}

func (s *KeysInMemoryStore) Set(keys string) {
	config.Set(keysKey, keys)
}

func (s *KeysInMemoryStore) Unset() {
	config.Unset(keysKey)
}

func (s *KeysInMemoryStore) IsSet() bool {
	return len(config.GetString(keysKey)) > 0
}

func (s *KeysInMemoryStore) Get() string {
	return config.GetString(keysKey)
}
