package domain

// IKeyStore defines the methods a store holding the serialized keys in
// plaintext must implement to either set, unset or get them.
type IKeyStore interface {
	Set(keys string)
	Unset()
	IsSet() bool
	Get() string
}

// IKeyCypher defines the methods a cypher must implement to encrypt or
// decrypt a serialized set of keys with a password.
type IKeyCypher interface {
	Encrypt(keys, password []byte) ([]byte, error)
	Decrypt(encryptedKeys, password []byte) ([]byte, error)
}

var KeyStore IKeyStore
var KeyCypher IKeyCypher
