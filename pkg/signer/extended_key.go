package signer

import (
	"bytes"
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	path "github.com/vulpemventures/lagoon/pkg/wallet/derivation-path"
)

// XPrvSigner is the built-in signer producing signatures with the children of
// a BIP32 extended private key. The inputs it applies to are detected through
// their bip32 derivation records: the signer takes the first record matching
// its root fingerprint and derivation prefix, derives the child key along the
// recorded path and hands signing over to a single-key signer.
type XPrvSigner struct {
	xprv   *hdkeychain.ExtendedKey
	path   path.DerivationPath
	origin *KeyOrigin
}

// NewXPrvSigner returns a signer backed by the given extended private key.
// The derivation path optionally restricts the matched inputs to those
// spending keys under it. The origin declares the provenance of a key that is
// not itself a master key.
func NewXPrvSigner(
	xprv *hdkeychain.ExtendedKey, derivationPath path.DerivationPath,
	origin *KeyOrigin,
) *XPrvSigner {
	return &XPrvSigner{xprv, derivationPath, origin}
}

// RootFingerprint returns the fingerprint identifying this signer, the one
// declared by its key origin if any, otherwise the fingerprint of the key
// itself.
func (s *XPrvSigner) RootFingerprint() (Fingerprint, error) {
	if s.origin != nil {
		return s.origin.MasterFingerprint, nil
	}
	pubkey, err := s.xprv.ECPubKey()
	if err != nil {
		return Fingerprint{}, err
	}
	var fingerprint Fingerprint
	copy(fingerprint[:], btcutil.Hash160(pubkey.SerializeCompressed()))
	return fingerprint, nil
}

func (s *XPrvSigner) Sign(
	ctx context.Context, ptx *psbt.Packet, inputIndex int,
) error {
	if inputIndex < 0 || inputIndex >= len(ptx.Inputs) {
		return ErrInputIndexOutOfRange
	}

	derivation, err := s.matchDerivation(ptx.Inputs[inputIndex].Bip32Derivation)
	if err != nil {
		return err
	}
	// Not every input is meant for this signer, let the others try.
	if derivation == nil {
		return nil
	}

	// The recorded path starts at the declared origin, the key itself sits at
	// the end of the origin path.
	steps := derivation.Bip32Path
	if s.origin != nil {
		steps = steps[len(s.origin.Path):]
	}

	prvkey := s.xprv
	for _, step := range steps {
		if prvkey, err = prvkey.Derive(step); err != nil {
			return err
		}
	}
	key, err := prvkey.ECPrivKey()
	if err != nil {
		return err
	}
	if !bytes.Equal(key.PubKey().SerializeCompressed(), derivation.PubKey) {
		return ErrInvalidKey
	}

	return NewPrivKeySigner(key).Sign(ctx, ptx, inputIndex)
}

func (s *XPrvSigner) SignWholeTx() bool {
	return false
}

func (s *XPrvSigner) SecretKey() *SecretKey {
	return &SecretKey{XPrv: s.xprv, Path: s.path, Origin: s.origin}
}

// matchDerivation returns the first bip32 derivation record matching the
// signer root fingerprint and derivation prefix, or nil if none does.
func (s *XPrvSigner) matchDerivation(
	derivations []*psbt.Bip32Derivation,
) (*psbt.Bip32Derivation, error) {
	fingerprint, err := s.RootFingerprint()
	if err != nil {
		return nil, err
	}
	prefix := s.path
	if s.origin != nil {
		prefix = s.origin.Path.Extend(s.path...)
	}

	for _, derivation := range derivations {
		if derivation.MasterKeyFingerprint != fingerprint.Uint32() {
			continue
		}
		if path.DerivationPath(derivation.Bip32Path).HasPrefix(prefix) {
			return derivation, nil
		}
	}
	return nil, nil
}
