package signer

import (
	"fmt"
)

var (
	ErrMissingKey            = fmt.Errorf("missing private key")
	ErrInvalidKey            = fmt.Errorf("key derives a public key different from the recorded one")
	ErrUserCanceled          = fmt.Errorf("operation canceled by the user")
	ErrInputIndexOutOfRange  = fmt.Errorf("input index out of range")
	ErrMissingNonWitnessUtxo = fmt.Errorf("missing non-witness utxo for input")
	ErrInvalidNonWitnessUtxo = fmt.Errorf("non-witness utxo does not contain the spent output")
	ErrMissingWitnessUtxo    = fmt.Errorf("missing witness utxo for input")
	ErrMissingWitnessScript  = fmt.Errorf("missing witness script for input")
	ErrMissingHDKeypath      = fmt.Errorf("missing hd keypath for input")

	ErrMissingSecretKey = fmt.Errorf("missing secret key material")
	ErrInvalidSecretKey = fmt.Errorf("secret key must be either a single key or an extended key")
)
