package mnemonic

import (
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/go-bip39"
)

// ToSeed converts a mnemonic to the BIP39 seed key material is generated from.
func ToSeed(mnemonic []string) []byte {
	return bip39.NewSeed(strings.Join(mnemonic, " "), "")
}

// ToMasterKey derives the BIP32 master private key for the given network from
// the seed of the given mnemonic.
func ToMasterKey(
	mnemonic []string, net *chaincfg.Params,
) (*hdkeychain.ExtendedKey, error) {
	if err := Validate(mnemonic); err != nil {
		return nil, err
	}
	return hdkeychain.NewMaster(ToSeed(mnemonic), net)
}
