package signer

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	path "github.com/vulpemventures/lagoon/pkg/wallet/derivation-path"
)

// KeyMap maps the public identifiers of a set of secret keys, as returned by
// SecretKey.PublicKey, to their key material. It is the exchange format
// between containers and whoever owns the keys at rest.
type KeyMap map[string]*SecretKey

// KeyOrigin qualifies an extended key that is not itself a master key with
// the fingerprint of the master it descends from and the derivation path
// connecting them.
type KeyOrigin struct {
	MasterFingerprint Fingerprint
	Path              path.DerivationPath
}

// SecretKey is the key material backing one of the built-in signers, either a
// single EC private key or a BIP32 extended private key. Exactly one of Key
// and XPrv must be set. For extended keys, Path optionally holds the
// derivation steps applied on top of Origin to reach the signing keys.
type SecretKey struct {
	Key    *btcec.PrivateKey
	XPrv   *hdkeychain.ExtendedKey
	Path   path.DerivationPath
	Origin *KeyOrigin
}

// IsExtended tells whether the secret is a BIP32 extended private key.
func (s *SecretKey) IsExtended() bool {
	return s.XPrv != nil
}

// PublicKey returns the public identifier of the secret, the hex compressed
// public key of a single key or the base58 neutered key of an extended one.
func (s *SecretKey) PublicKey() (string, error) {
	if err := s.validate(); err != nil {
		return "", err
	}
	if s.IsExtended() {
		xpub, err := s.XPrv.Neuter()
		if err != nil {
			return "", err
		}
		return xpub.String(), nil
	}
	return hex.EncodeToString(s.Key.PubKey().SerializeCompressed()), nil
}

func (s *SecretKey) validate() error {
	if s.Key == nil && s.XPrv == nil {
		return ErrMissingSecretKey
	}
	if s.Key != nil && s.XPrv != nil {
		return ErrInvalidSecretKey
	}
	if s.XPrv != nil && !s.XPrv.IsPrivate() {
		return ErrMissingSecretKey
	}
	return nil
}
