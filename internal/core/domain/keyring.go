package domain

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/lagoon/pkg/signer"
)

const (
	signerTypeSingleKey   = "private-key"
	signerTypeExtendedKey = "extended-key"
)

var (
	ErrKeyringMissingKeys      = fmt.Errorf("missing signing keys")
	ErrKeyringMissingPassword  = fmt.Errorf("missing password")
	ErrKeyringMissingNetwork   = fmt.Errorf("missing network name")
	ErrKeyringLocked           = fmt.Errorf("keyring is locked")
	ErrKeyringUnlocked         = fmt.Errorf("keyring must be locked")
	ErrKeyringInvalidPassword  = fmt.Errorf("wrong password")
	ErrKeyringInvalidNetwork   = fmt.Errorf("unknown network")
	ErrKeyringInvalidKeys      = fmt.Errorf("keys do not match the keyring network")
	ErrKeyringKeyAlreadyExists = fmt.Errorf("key already exists in keyring")

	networks = map[string]*chaincfg.Params{
		"mainnet": &chaincfg.MainNetParams,
		"testnet": &chaincfg.TestNet3Params,
		"regtest": &chaincfg.RegressionNetParams,
	}
)

// SignerInfo holds useful info about a signer registered in the keyring.
type SignerInfo struct {
	Identity    string
	Type        string
	Ordering    uint32
	PublicKey   string
	Fingerprint string
	Path        string
}

// Keyring is the data structure representing a secure set of signing keys,
// ie. protected by a password that encrypts/decrypts their serialization.
type Keyring struct {
	EncryptedKeys []byte
	PasswordHash  []byte
	NetworkName   string
}

// NewKeyring encrypts the provided set of keys with the password and returns
// a new Keyring initialized with the encrypted keys, the hash of the password
// and the given network.
// The Keyring is locked by default since it is initialized without the keys
// in plain text.
func NewKeyring(keys signer.KeyMap, password, network string) (*Keyring, error) {
	if len(keys) <= 0 {
		return nil, ErrKeyringMissingKeys
	}
	if len(password) <= 0 {
		return nil, ErrKeyringMissingPassword
	}
	if network == "" {
		return nil, ErrKeyringMissingNetwork
	}
	net, ok := networks[network]
	if !ok {
		return nil, ErrKeyringInvalidNetwork
	}

	if _, err := signer.FromKeyMap(keys); err != nil {
		return nil, err
	}

	serializedKeys, err := serializeKeys(keys, net)
	if err != nil {
		return nil, err
	}

	encryptedKeys, err := KeyCypher.Encrypt(serializedKeys, []byte(password))
	if err != nil {
		return nil, err
	}

	return &Keyring{
		EncryptedKeys: encryptedKeys,
		PasswordHash:  btcutil.Hash160([]byte(password)),
		NetworkName:   network,
	}, nil
}

// IsInitialized returns whether the keyring is initialized with an encrypted
// set of keys.
func (k *Keyring) IsInitialized() bool {
	return len(k.EncryptedKeys) > 0
}

// IsLocked returns whether the keyring is initialized and the plaintext keys
// are set in its store.
func (k *Keyring) IsLocked() bool {
	return !k.IsInitialized() || !KeyStore.IsSet()
}

// Keys safely returns the plaintext set of keys.
func (k *Keyring) Keys() (signer.KeyMap, error) {
	if k.IsLocked() {
		return nil, ErrKeyringLocked
	}

	return parseKeys([]byte(KeyStore.Get()), networkFromName(k.NetworkName))
}

// Lock locks the Keyring by wiping the plaintext keys from its store.
func (k *Keyring) Lock(password string) error {
	if k.IsLocked() {
		return nil
	}

	if !k.IsValidPassword(password) {
		return ErrKeyringInvalidPassword
	}

	KeyStore.Unset()
	return nil
}

// Unlock attempts to decrypt the encrypted keys with the provided password.
func (k *Keyring) Unlock(password string) error {
	if !k.IsLocked() {
		return nil
	}

	if !k.IsValidPassword(password) {
		return ErrKeyringInvalidPassword
	}

	serializedKeys, err := KeyCypher.Decrypt(k.EncryptedKeys, []byte(password))
	if err != nil {
		return err
	}

	KeyStore.Set(string(serializedKeys))
	return nil
}

// ChangePassword attempts to decrypt the keys with the given currentPassword,
// then encrypts them again with the new password and stores its hash.
func (k *Keyring) ChangePassword(currentPassword, newPassword string) error {
	if !k.IsLocked() {
		return ErrKeyringUnlocked
	}
	if !k.IsValidPassword(currentPassword) {
		return ErrKeyringInvalidPassword
	}

	serializedKeys, err := KeyCypher.Decrypt(
		k.EncryptedKeys, []byte(currentPassword),
	)
	if err != nil {
		return err
	}

	encryptedKeys, err := KeyCypher.Encrypt(serializedKeys, []byte(newPassword))
	if err != nil {
		return err
	}

	k.EncryptedKeys = encryptedKeys
	k.PasswordHash = btcutil.Hash160([]byte(newPassword))
	return nil
}

// ImportKeys adds the given keys to the keyring by preventing collisions with
// existing ones, re-encrypting the whole set with the password.
func (k *Keyring) ImportKeys(password string, keys signer.KeyMap) error {
	if k.IsLocked() {
		return ErrKeyringLocked
	}
	if !k.IsValidPassword(password) {
		return ErrKeyringInvalidPassword
	}
	if len(keys) <= 0 {
		return ErrKeyringMissingKeys
	}

	if _, err := signer.FromKeyMap(keys); err != nil {
		return err
	}

	currentKeys, err := k.Keys()
	if err != nil {
		return err
	}
	for _, secret := range keys {
		pubkey, err := secret.PublicKey()
		if err != nil {
			return err
		}
		if _, ok := currentKeys[pubkey]; ok {
			return ErrKeyringKeyAlreadyExists
		}
		currentKeys[pubkey] = secret
	}

	serializedKeys, err := serializeKeys(
		currentKeys, networkFromName(k.NetworkName),
	)
	if err != nil {
		return err
	}
	encryptedKeys, err := KeyCypher.Encrypt(serializedKeys, []byte(password))
	if err != nil {
		return err
	}

	k.EncryptedKeys = encryptedKeys
	KeyStore.Set(string(serializedKeys))
	return nil
}

// ExportKeys returns the plaintext keys in their at-rest form, mapped by
// public identifier.
func (k *Keyring) ExportKeys() (map[string]KeyRecord, error) {
	keys, err := k.Keys()
	if err != nil {
		return nil, err
	}

	net := networkFromName(k.NetworkName)
	records := make(map[string]KeyRecord, len(keys))
	for pubkey, secret := range keys {
		record, err := NewKeyRecord(secret, net)
		if err != nil {
			return nil, err
		}
		records[pubkey] = *record
	}
	return records, nil
}

// Signers returns the container of signers built from the plaintext keys.
func (k *Keyring) Signers() (*signer.Container, error) {
	keys, err := k.Keys()
	if err != nil {
		return nil, err
	}

	return signer.FromKeyMap(keys)
}

// ListSigners returns info about all signers registered in the keyring.
func (k *Keyring) ListSigners() ([]SignerInfo, error) {
	container, err := k.Signers()
	if err != nil {
		return nil, err
	}

	ids := container.IDs()
	info := make([]SignerInfo, 0, container.Len())
	for i, sgn := range container.Signers() {
		secret := sgn.SecretKey()
		pubkey, err := secret.PublicKey()
		if err != nil {
			return nil, err
		}

		signerInfo := SignerInfo{
			Identity:  ids[i].String(),
			Type:      signerTypeSingleKey,
			Ordering:  uint32(signer.DefaultSignerOrdering),
			PublicKey: pubkey,
		}
		if secret.IsExtended() {
			signerInfo.Type = signerTypeExtendedKey
			signerInfo.Fingerprint = hex.EncodeToString(ids[i].Bytes())
			if len(secret.Path) > 0 {
				signerInfo.Path = secret.Path.String()
			}
		}
		info = append(info, signerInfo)
	}
	return info, nil
}

// SignPsbt runs a full signing pass over the given partial transaction with
// all signers of the keyring.
func (k *Keyring) SignPsbt(ctx context.Context, ptx *psbt.Packet) error {
	container, err := k.Signers()
	if err != nil {
		return err
	}

	return container.SignPsbt(ctx, ptx)
}

func (k *Keyring) IsValidPassword(password string) bool {
	return bytes.Equal(k.PasswordHash, btcutil.Hash160([]byte(password)))
}

func networkFromName(net string) *chaincfg.Params {
	return networks[net]
}

// NetworkFromName returns the chain params for a known network name.
func NetworkFromName(net string) (*chaincfg.Params, error) {
	params, ok := networks[net]
	if !ok {
		return nil, ErrKeyringInvalidNetwork
	}
	return params, nil
}
