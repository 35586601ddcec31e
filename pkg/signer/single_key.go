package signer

import (
	"bytes"
	"context"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

// PrivKeySigner is the built-in signer producing deterministic ECDSA
// signatures with a single private key. The digest to sign is computed with
// the segwit v0 strategy for inputs carrying a witness utxo and with the
// legacy one for anything else.
type PrivKeySigner struct {
	prvkey *btcec.PrivateKey
}

// NewPrivKeySigner returns a signer backed by the given private key.
func NewPrivKeySigner(prvkey *btcec.PrivateKey) *PrivKeySigner {
	return &PrivKeySigner{prvkey}
}

func (s *PrivKeySigner) Sign(
	ctx context.Context, ptx *psbt.Packet, inputIndex int,
) error {
	if inputIndex < 0 || inputIndex >= len(ptx.Inputs) {
		return ErrInputIndexOutOfRange
	}

	input := &ptx.Inputs[inputIndex]
	pubkey := s.prvkey.PubKey().SerializeCompressed()
	// Nothing to do if the input already carries a signature for this key.
	for _, partialSig := range input.PartialSigs {
		if bytes.Equal(partialSig.PubKey, pubkey) {
			return nil
		}
	}

	sighash := LegacySighash
	if input.WitnessUtxo != nil {
		sighash = SegwitV0Sighash
	}
	digest, sighashType, err := sighash(ptx, inputIndex)
	if err != nil {
		return err
	}

	signature := ecdsa.Sign(s.prvkey, digest)
	sig := append(signature.Serialize(), byte(sighashType))
	input.PartialSigs = append(input.PartialSigs, &psbt.PartialSig{
		PubKey: pubkey, Signature: sig,
	})
	return nil
}

func (s *PrivKeySigner) SignWholeTx() bool {
	return false
}

func (s *PrivKeySigner) SecretKey() *SecretKey {
	return &SecretKey{Key: s.prvkey}
}
