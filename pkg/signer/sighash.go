package signer

import (
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
)

// LegacySighash computes the digest a pre-segwit input of the given partial
// transaction commits to, along with the sighash type in use, the one
// declared by the input or SigHashAll as default. The script code is the
// input redeem script when present, otherwise the script pubkey of the spent
// output, looked up by outpoint index inside the non-witness utxo.
func LegacySighash(
	ptx *psbt.Packet, inputIndex int,
) ([]byte, txscript.SigHashType, error) {
	if inputIndex < 0 || inputIndex >= len(ptx.Inputs) {
		return nil, 0, ErrInputIndexOutOfRange
	}

	input := ptx.Inputs[inputIndex]
	sighashType := input.SighashType
	if sighashType == 0 {
		sighashType = txscript.SigHashAll
	}

	scriptCode := input.RedeemScript
	if len(scriptCode) == 0 {
		if input.NonWitnessUtxo == nil {
			return nil, 0, ErrMissingNonWitnessUtxo
		}
		vout := ptx.UnsignedTx.TxIn[inputIndex].PreviousOutPoint.Index
		if vout >= uint32(len(input.NonWitnessUtxo.TxOut)) {
			return nil, 0, ErrInvalidNonWitnessUtxo
		}
		scriptCode = input.NonWitnessUtxo.TxOut[vout].PkScript
	}

	digest, err := txscript.CalcSignatureHash(
		scriptCode, sighashType, ptx.UnsignedTx, inputIndex,
	)
	if err != nil {
		return nil, 0, err
	}
	return digest, sighashType, nil
}

// SegwitV0Sighash computes the BIP143 digest a segwit v0 input of the given
// partial transaction commits to, along with the sighash type in use, the
// one declared by the input or SigHashAll as default. The input must carry a
// witness utxo. The script code is resolved in order from the input witness
// script, from the witness utxo script pubkey when it is a canonical P2WPKH,
// or from the redeem script when it is a canonical P2WPKH nested in a P2SH
// output.
func SegwitV0Sighash(
	ptx *psbt.Packet, inputIndex int,
) ([]byte, txscript.SigHashType, error) {
	if inputIndex < 0 || inputIndex >= len(ptx.Inputs) {
		return nil, 0, ErrInputIndexOutOfRange
	}

	input := ptx.Inputs[inputIndex]
	sighashType := input.SighashType
	if sighashType == 0 {
		sighashType = txscript.SigHashAll
	}

	if input.WitnessUtxo == nil {
		return nil, 0, ErrMissingWitnessUtxo
	}

	scriptCode := input.WitnessScript
	if len(scriptCode) == 0 {
		var err error
		switch {
		case txscript.IsPayToWitnessPubKeyHash(input.WitnessUtxo.PkScript):
			scriptCode, err = p2wpkhScriptCode(input.WitnessUtxo.PkScript)
		case txscript.IsPayToWitnessPubKeyHash(input.RedeemScript):
			scriptCode, err = p2wpkhScriptCode(input.RedeemScript)
		default:
			return nil, 0, ErrMissingWitnessScript
		}
		if err != nil {
			return nil, 0, err
		}
	}

	prevoutFetcher := txscript.NewCannedPrevOutputFetcher(
		input.WitnessUtxo.PkScript, input.WitnessUtxo.Value,
	)
	sigHashes := txscript.NewTxSigHashes(ptx.UnsignedTx, prevoutFetcher)
	digest, err := txscript.CalcWitnessSigHash(
		scriptCode, sigHashes, sighashType, ptx.UnsignedTx, inputIndex,
		input.WitnessUtxo.Value,
	)
	if err != nil {
		return nil, 0, err
	}
	return digest, sighashType, nil
}

// p2wpkhScriptCode builds the canonical script code of a P2WPKH output, the
// legacy P2PKH locking script around the 20-byte hash embedded in the
// witness program.
func p2wpkhScriptCode(script []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddOp(txscript.OP_DUP).
		AddOp(txscript.OP_HASH160).
		AddData(script[2:]).
		AddOp(txscript.OP_EQUALVERIFY).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}
