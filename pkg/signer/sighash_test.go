package signer_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/lagoon/pkg/signer"
)

func TestLegacySighash(t *testing.T) {
	t.Parallel()

	_, pubkey := btcec.PrivKeyFromBytes(h2b(
		"cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc",
	))

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		// The redeem script, when present, is the script code verbatim.
		ptx := newTestPacket(t, 1)
		redeemScript := p2pkhScript(t, pubkey)
		ptx.Inputs[0].RedeemScript = redeemScript

		digest, sighashType, err := signer.LegacySighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashAll, sighashType)
		expected, err := txscript.CalcSignatureHash(
			redeemScript, txscript.SigHashAll, ptx.UnsignedTx, 0,
		)
		require.NoError(t, err)
		require.Equal(t, expected, digest)

		// Otherwise the script code comes from the spent output of the
		// non-witness utxo.
		ptx = newTestPacket(t, 1)
		ptx.UnsignedTx.TxIn[0].PreviousOutPoint.Index = 1
		prevTx := wire.NewMsgTx(2)
		prevTx.AddTxOut(wire.NewTxOut(40000, p2wpkhScript(t, pubkey)))
		prevTx.AddTxOut(wire.NewTxOut(60000, p2pkhScript(t, pubkey)))
		ptx.Inputs[0].NonWitnessUtxo = prevTx

		digest, sighashType, err = signer.LegacySighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashAll, sighashType)
		expected, err = txscript.CalcSignatureHash(
			prevTx.TxOut[1].PkScript, txscript.SigHashAll, ptx.UnsignedTx, 0,
		)
		require.NoError(t, err)
		require.Equal(t, expected, digest)

		// A type declared on the input takes over the default.
		ptx.Inputs[0].SighashType = txscript.SigHashSingle
		digest, sighashType, err = signer.LegacySighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashSingle, sighashType)
		expected, err = txscript.CalcSignatureHash(
			prevTx.TxOut[1].PkScript, txscript.SigHashSingle, ptx.UnsignedTx, 0,
		)
		require.NoError(t, err)
		require.Equal(t, expected, digest)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		ptx := newTestPacket(t, 1)
		_, _, err := signer.LegacySighash(ptx, 0)
		require.ErrorIs(t, err, signer.ErrMissingNonWitnessUtxo)

		// The non-witness utxo must contain the outpoint being spent.
		ptx.UnsignedTx.TxIn[0].PreviousOutPoint.Index = 1
		prevTx := wire.NewMsgTx(2)
		prevTx.AddTxOut(wire.NewTxOut(40000, p2pkhScript(t, pubkey)))
		ptx.Inputs[0].NonWitnessUtxo = prevTx
		_, _, err = signer.LegacySighash(ptx, 0)
		require.ErrorIs(t, err, signer.ErrInvalidNonWitnessUtxo)

		_, _, err = signer.LegacySighash(ptx, 1)
		require.ErrorIs(t, err, signer.ErrInputIndexOutOfRange)
		_, _, err = signer.LegacySighash(ptx, -1)
		require.ErrorIs(t, err, signer.ErrInputIndexOutOfRange)
	})
}

func TestSegwitV0Sighash(t *testing.T) {
	t.Parallel()

	_, pubkey := btcec.PrivKeyFromBytes(h2b(
		"dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd",
	))

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		// Native p2wpkh, the script code is synthesized from the witness
		// program.
		ptx := newTestPacket(t, 1)
		witnessUtxo := wire.NewTxOut(100000, p2wpkhScript(t, pubkey))
		ptx.Inputs[0].WitnessUtxo = witnessUtxo

		digest, sighashType, err := signer.SegwitV0Sighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashAll, sighashType)
		require.Equal(
			t, expectedWitnessDigest(
				t, ptx.UnsignedTx, witnessUtxo, p2pkhScript(t, pubkey),
				txscript.SigHashAll,
			), digest,
		)

		// An explicit witness script wins over any synthesis.
		ptx = newTestPacket(t, 1)
		witnessScript := p2pkhScript(t, pubkey)
		witnessUtxo = wire.NewTxOut(100000, p2wshScript(t, witnessScript))
		ptx.Inputs[0].WitnessUtxo = witnessUtxo
		ptx.Inputs[0].WitnessScript = witnessScript

		digest, sighashType, err = signer.SegwitV0Sighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashAll, sighashType)
		require.Equal(
			t, expectedWitnessDigest(
				t, ptx.UnsignedTx, witnessUtxo, witnessScript, txscript.SigHashAll,
			), digest,
		)

		// Nested p2wpkh, the witness program lives in the redeem script.
		ptx = newTestPacket(t, 1)
		redeemScript := p2wpkhScript(t, pubkey)
		witnessUtxo = wire.NewTxOut(100000, p2shScript(t, redeemScript))
		ptx.Inputs[0].WitnessUtxo = witnessUtxo
		ptx.Inputs[0].RedeemScript = redeemScript

		digest, sighashType, err = signer.SegwitV0Sighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashAll, sighashType)
		require.Equal(
			t, expectedWitnessDigest(
				t, ptx.UnsignedTx, witnessUtxo, p2pkhScript(t, pubkey),
				txscript.SigHashAll,
			), digest,
		)

		// A type declared on the input takes over the default.
		ptx.Inputs[0].SighashType = txscript.SigHashNone
		digest, sighashType, err = signer.SegwitV0Sighash(ptx, 0)
		require.NoError(t, err)
		require.Equal(t, txscript.SigHashNone, sighashType)
		require.Equal(
			t, expectedWitnessDigest(
				t, ptx.UnsignedTx, witnessUtxo, p2pkhScript(t, pubkey),
				txscript.SigHashNone,
			), digest,
		)
	})

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		ptx := newTestPacket(t, 1)
		_, _, err := signer.SegwitV0Sighash(ptx, 0)
		require.ErrorIs(t, err, signer.ErrMissingWitnessUtxo)

		// A non p2wpkh witness utxo without witness script cannot be signed.
		witnessScript := p2pkhScript(t, pubkey)
		ptx.Inputs[0].WitnessUtxo = wire.NewTxOut(
			100000, p2wshScript(t, witnessScript),
		)
		_, _, err = signer.SegwitV0Sighash(ptx, 0)
		require.ErrorIs(t, err, signer.ErrMissingWitnessScript)

		_, _, err = signer.SegwitV0Sighash(ptx, 1)
		require.ErrorIs(t, err, signer.ErrInputIndexOutOfRange)
		_, _, err = signer.SegwitV0Sighash(ptx, -1)
		require.ErrorIs(t, err, signer.ErrInputIndexOutOfRange)
	})
}

func expectedWitnessDigest(
	t *testing.T, tx *wire.MsgTx, utxo *wire.TxOut, scriptCode []byte,
	sighashType txscript.SigHashType,
) []byte {
	fetcher := txscript.NewCannedPrevOutputFetcher(utxo.PkScript, utxo.Value)
	digest, err := txscript.CalcWitnessSigHash(
		scriptCode, txscript.NewTxSigHashes(tx, fetcher), sighashType, tx, 0,
		utxo.Value,
	)
	require.NoError(t, err)
	return digest
}

func p2pkhScript(t *testing.T, pubkey *btcec.PublicKey) []byte {
	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pubkey.SerializeCompressed()),
		&chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

func p2wshScript(t *testing.T, witnessScript []byte) []byte {
	addr, err := btcutil.NewAddressWitnessScriptHash(
		chainhash.HashB(witnessScript), &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}

func p2shScript(t *testing.T, redeemScript []byte) []byte {
	addr, err := btcutil.NewAddressScriptHash(
		redeemScript, &chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	script, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)
	return script
}
