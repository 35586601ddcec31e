package signer

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
)

const (
	// WholeTx is the input index passed to Sign for signers that declare to
	// sign the whole transaction at once (see Signer.SignWholeTx).
	WholeTx = -1

	// DefaultSignerOrdering is the priority given to signers registered
	// without an explicit one, like those imported from a key map.
	DefaultSignerOrdering SignerOrdering = 100
)

// Signer is the interface implemented by any signing backend, from in-process
// private keys to hardware devices or remote custodians. Implementations must
// be safe for concurrent use, the same instance can be shared by multiple
// containers and signing passes at the same time.
type Signer interface {
	// Sign adds the signatures produced by this signer to the given partial
	// transaction. Signers declaring to sign the whole transaction at once
	// are invoked once with the WholeTx index and must take care of every
	// input they apply to, any other signer is invoked once per input index.
	// Signing again with unchanged inputs must leave the transaction as is.
	Sign(ctx context.Context, ptx *psbt.Packet, inputIndex int) error
	// SignWholeTx tells the calling convention for Sign.
	SignWholeTx() bool
	// SecretKey returns the key material of signers backed by an in-process
	// secret, so that containers can export them as key maps. Backends that
	// cannot or do not want to expose their secrets return nil.
	SecretKey() *SecretKey
}

// SignerOrdering is the priority of a signer within a Container, signers with
// lower ordering are invoked first during a signing pass.
type SignerOrdering uint32

// Fingerprint is the BIP32 fingerprint of an extended key, the first 4 bytes
// of the HASH160 of its serialized compressed public key.
type Fingerprint [4]byte

// FingerprintFromString decodes a fingerprint from its hex representation.
func FingerprintFromString(str string) (Fingerprint, error) {
	buf, err := hex.DecodeString(str)
	if err != nil {
		return Fingerprint{}, err
	}
	if len(buf) != len(Fingerprint{}) {
		return Fingerprint{}, fmt.Errorf(
			"invalid fingerprint length: must be exactly %d bytes",
			len(Fingerprint{}),
		)
	}
	var fingerprint Fingerprint
	copy(fingerprint[:], buf)
	return fingerprint, nil
}

// FingerprintFromUint32 decodes a fingerprint from the little-endian integer
// representation used by the bip32 derivation fields of partial transactions.
func FingerprintFromUint32(v uint32) Fingerprint {
	var fingerprint Fingerprint
	binary.LittleEndian.PutUint32(fingerprint[:], v)
	return fingerprint
}

// Uint32 returns the fingerprint in the little-endian integer representation
// used by the bip32 derivation fields of partial transactions.
func (f Fingerprint) Uint32() uint32 {
	return binary.LittleEndian.Uint32(f[:])
}

func (f Fingerprint) String() string {
	return hex.EncodeToString(f[:])
}

type signerIDKind uint8

const (
	pubKeyHashKind signerIDKind = iota
	fingerprintKind
)

// SignerID is the identifier of a signer within a Container, either the
// HASH160 of the public key it signs for or the fingerprint of its extended
// master key. Ids are immutable and totally ordered so that they can be used
// as lookup keys: ids of different kind compare by kind, ids of the same
// kind by raw bytes.
type SignerID struct {
	kind signerIDKind
	data [20]byte
}

// PubKeyHashID returns the id of a signer identified by the HASH160 of its
// compressed public key.
func PubKeyHashID(pubkey *btcec.PublicKey) SignerID {
	id := SignerID{kind: pubKeyHashKind}
	copy(id.data[:], btcutil.Hash160(pubkey.SerializeCompressed()))
	return id
}

// FingerprintID returns the id of a signer identified by the fingerprint of
// its extended master key.
func FingerprintID(fingerprint Fingerprint) SignerID {
	id := SignerID{kind: fingerprintKind}
	copy(id.data[:], fingerprint[:])
	return id
}

// IsFingerprint tells whether the id identifies its signer by extended key
// fingerprint.
func (id SignerID) IsFingerprint() bool {
	return id.kind == fingerprintKind
}

// IsPubKeyHash tells whether the id identifies its signer by public key hash.
func (id SignerID) IsPubKeyHash() bool {
	return id.kind == pubKeyHashKind
}

// Bytes returns the raw bytes of the id, 20 for a public key hash and 4 for
// a fingerprint.
func (id SignerID) Bytes() []byte {
	if id.kind == fingerprintKind {
		return id.data[:len(Fingerprint{})]
	}
	return id.data[:]
}

// Compare returns -1, 0 or 1 whether the id sorts before, equal to or after
// the other.
func (id SignerID) Compare(other SignerID) int {
	if id.kind != other.kind {
		if id.kind < other.kind {
			return -1
		}
		return 1
	}
	return bytes.Compare(id.Bytes(), other.Bytes())
}

func (id SignerID) String() string {
	if id.kind == fingerprintKind {
		return fmt.Sprintf("fingerprint(%x)", id.Bytes())
	}
	return fmt.Sprintf("pkh(%x)", id.Bytes())
}
