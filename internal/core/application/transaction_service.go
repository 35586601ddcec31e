package application

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	log "github.com/sirupsen/logrus"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/internal/core/ports"
)

var (
	sighashTypes = map[txscript.SigHashType]string{
		txscript.SigHashAll:    "ALL",
		txscript.SigHashNone:   "NONE",
		txscript.SigHashSingle: "SINGLE",
	}
)

// TransactionService is responsible for operations related to partially
// signed bitcoin transactions (BIP174):
//   - Sign a partial transaction (in base64 format) with all the signers of the keyring. It is required that the keyring is unlocked.
//   - Finalize a partial transaction and extract its raw complete form (in hex format), ready to be broadcasted.
//   - Get info about a partial transaction, like a breakdown of its inputs and outputs, the fee amount if it can be computed, and whether it's complete.
//
// The service registers 1 handler for the following keyring events:
//   - domain.KeyringUnlocked / domain.KeyringLocked - logged to give visibility about whether signing operations are available.
type TransactionService struct {
	repoManager ports.RepoManager
	network     string

	log func(format string, a ...interface{})
}

func NewTransactionService(
	repoManager ports.RepoManager, network string,
) *TransactionService {
	logFn := func(format string, a ...interface{}) {
		format = fmt.Sprintf("transaction service: %s", format)
		log.Debugf(format, a...)
	}
	svc := &TransactionService{repoManager, network, logFn}
	svc.registerHandlerForKeyringEvents()

	return svc
}

// SignPsbt runs a signing pass with all the signers of the keyring over the
// given partial transaction and returns its updated base64 serialization.
func (ts *TransactionService) SignPsbt(
	ctx context.Context, tx string,
) (string, error) {
	keyring, err := ts.getKeyring(ctx)
	if err != nil {
		return "", err
	}

	ptx, err := psbt.NewFromRawBytes(strings.NewReader(tx), true)
	if err != nil {
		return "", fmt.Errorf("invalid partial transaction: %s", err)
	}

	sigCount := countSigs(ptx)
	if err := keyring.SignPsbt(ctx, ptx); err != nil {
		return "", err
	}
	if added := countSigs(ptx) - sigCount; added > 0 {
		ts.log("added %d signature(s) to partial transaction", added)
	}

	return ptx.B64Encode()
}

// FinalizePsbt finalizes the given partial transaction and extracts its
// complete raw form in hex format.
func (ts *TransactionService) FinalizePsbt(
	ctx context.Context, tx string,
) (string, error) {
	ptx, err := psbt.NewFromRawBytes(strings.NewReader(tx), true)
	if err != nil {
		return "", fmt.Errorf("invalid partial transaction: %s", err)
	}

	if err := psbt.MaybeFinalizeAll(ptx); err != nil {
		return "", err
	}

	finalTx, err := psbt.Extract(ptx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := finalTx.Serialize(&buf); err != nil {
		return "", err
	}

	ts.log("finalized partial transaction %s", finalTx.TxHash().String())
	return hex.EncodeToString(buf.Bytes()), nil
}

// InspectPsbt returns a breakdown of the given partial transaction. The fee
// amount is included only if the previous output of every input is embedded
// in the transaction.
func (ts *TransactionService) InspectPsbt(
	ctx context.Context, tx string,
) (*PtxInfo, error) {
	net, err := domain.NetworkFromName(ts.network)
	if err != nil {
		return nil, err
	}

	ptx, err := psbt.NewFromRawBytes(strings.NewReader(tx), true)
	if err != nil {
		return nil, fmt.Errorf("invalid partial transaction: %s", err)
	}

	ins := make([]PtxInput, 0, len(ptx.Inputs))
	totalIn, inValuesKnown := int64(0), true
	for i, in := range ptx.Inputs {
		prevout := ptx.UnsignedTx.TxIn[i].PreviousOutPoint
		input := PtxInput{
			TxID: prevout.Hash.String(),
			VOut: prevout.Index,
			Finalized: len(in.FinalScriptSig) > 0 ||
				len(in.FinalScriptWitness) > 0,
		}
		if in.SighashType != 0 {
			input.SighashType = sighashString(in.SighashType)
		}
		for _, partialSig := range in.PartialSigs {
			input.SignedBy = append(
				input.SignedBy, hex.EncodeToString(partialSig.PubKey),
			)
		}

		if prevOutput := prevOutputOf(in, prevout.Index); prevOutput != nil {
			input.Value = btcAmount(prevOutput.Value)
			totalIn += prevOutput.Value
		} else {
			inValuesKnown = false
		}
		ins = append(ins, input)
	}

	outs := make([]PtxOutput, 0, len(ptx.UnsignedTx.TxOut))
	totalOut := int64(0)
	for _, out := range ptx.UnsignedTx.TxOut {
		output := PtxOutput{
			Script: hex.EncodeToString(out.PkScript),
			Value:  btcAmount(out.Value),
		}
		_, addresses, _, err := txscript.ExtractPkScriptAddrs(out.PkScript, net)
		if err == nil && len(addresses) > 0 {
			output.Address = addresses[0].EncodeAddress()
		}
		totalOut += out.Value
		outs = append(outs, output)
	}

	info := &PtxInfo{
		Version:    ptx.UnsignedTx.Version,
		Inputs:     ins,
		Outputs:    outs,
		IsComplete: ptx.IsComplete(),
	}
	if inValuesKnown {
		info.Fee = btcAmount(totalIn - totalOut)
	}
	return info, nil
}

func (ts *TransactionService) registerHandlerForKeyringEvents() {
	ts.repoManager.RegisterHandlerForKeyringEvent(
		domain.KeyringUnlocked, func(_ domain.KeyringEvent) {
			ts.log("keyring unlocked, signing enabled")
		},
	)
	ts.repoManager.RegisterHandlerForKeyringEvent(
		domain.KeyringLocked, func(_ domain.KeyringEvent) {
			ts.log("keyring locked, signing disabled")
		},
	)
}

func (ts *TransactionService) getKeyring(
	ctx context.Context,
) (*domain.Keyring, error) {
	return ts.repoManager.KeyringRepository().GetKeyring(ctx)
}

func prevOutputOf(in psbt.PInput, vout uint32) *wire.TxOut {
	if in.WitnessUtxo != nil {
		return in.WitnessUtxo
	}
	if in.NonWitnessUtxo != nil && int(vout) < len(in.NonWitnessUtxo.TxOut) {
		return in.NonWitnessUtxo.TxOut[vout]
	}
	return nil
}

func countSigs(ptx *psbt.Packet) int {
	count := 0
	for _, in := range ptx.Inputs {
		count += len(in.PartialSigs)
	}
	return count
}

func sighashString(sighashType txscript.SigHashType) string {
	name, ok := sighashTypes[sighashType&^txscript.SigHashAnyOneCanPay]
	if !ok {
		return fmt.Sprintf("UNKNOWN (%d)", sighashType)
	}
	if sighashType&txscript.SigHashAnyOneCanPay != 0 {
		name += "|ANYONECANPAY"
	}
	return name
}
