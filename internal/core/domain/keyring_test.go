package domain_test

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
	"github.com/vulpemventures/lagoon/internal/core/domain"
	"github.com/vulpemventures/lagoon/pkg/signer"
	path "github.com/vulpemventures/lagoon/pkg/wallet/derivation-path"
)

var (
	regtest       = "regtest"
	password      = "password"
	newPassword   = "newpassword"
	wrongPassword = "wrongpassword"
	testSeed      = h2b(
		"5555555555555555555555555555555555555555555555555555555555555555",
	)
	testPrvkeyBytes = h2b(
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
	)
)

func TestMain(m *testing.M) {
	domain.KeyCypher = fakeKeyCypher{}
	domain.KeyStore = newInMemoryKeyStore()

	os.Exit(m.Run())
}

func TestNewKeyring(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		keyring, err := newTestKeyring()
		require.NoError(t, err)
		require.NotNil(t, keyring)
		require.Equal(t, regtest, keyring.NetworkName)
		require.Equal(
			t, btcutil.Hash160([]byte(password)), keyring.PasswordHash,
		)
		require.NotEmpty(t, keyring.EncryptedKeys)
		require.True(t, keyring.IsInitialized())
		require.True(t, keyring.IsLocked())

		keys, err := keyring.Keys()
		require.EqualError(t, domain.ErrKeyringLocked, err.Error())
		require.Nil(t, keys)

		err = keyring.Unlock(password)
		require.NoError(t, err)
		require.False(t, keyring.IsLocked())

		keys, err = keyring.Keys()
		require.NoError(t, err)
		require.Len(t, keys, 2)
		for pubkey, secret := range newTestKeyMap(t) {
			gotSecret, ok := keys[pubkey]
			require.True(t, ok)
			require.Equal(t, secret.IsExtended(), gotSecret.IsExtended())
			if secret.IsExtended() {
				require.Equal(t, secret.XPrv.String(), gotSecret.XPrv.String())
				require.Equal(t, secret.Path, gotSecret.Path)
				require.Equal(t, secret.Origin, gotSecret.Origin)
			} else {
				require.Equal(
					t, secret.Key.Serialize(), gotSecret.Key.Serialize(),
				)
			}
		}

		err = keyring.Lock(wrongPassword)
		require.EqualError(t, err, domain.ErrKeyringInvalidPassword.Error())
		require.False(t, keyring.IsLocked())

		err = keyring.Lock(password)
		require.NoError(t, err)
		require.True(t, keyring.IsLocked())
	})

	t.Run("invalid", func(t *testing.T) {
		keymap := newTestKeyMap(t)

		tests := []struct {
			keys          signer.KeyMap
			password      string
			network       string
			expectedError error
		}{
			{nil, password, regtest, domain.ErrKeyringMissingKeys},
			{keymap, "", regtest, domain.ErrKeyringMissingPassword},
			{keymap, password, "", domain.ErrKeyringMissingNetwork},
			{keymap, password, "liquid", domain.ErrKeyringInvalidNetwork},
			{keymap, password, "mainnet", domain.ErrKeyringInvalidKeys},
		}

		for _, tt := range tests {
			v, err := domain.NewKeyring(tt.keys, tt.password, tt.network)
			require.Nil(t, v)
			require.EqualError(t, err, tt.expectedError.Error())
		}
	})
}

func TestKeyringLockUnlock(t *testing.T) {
	keyring, err := newTestKeyring()
	require.NoError(t, err)

	err = keyring.Unlock(password)
	require.NoError(t, err)

	err = keyring.Lock(password)
	require.NoError(t, err)

	err = keyring.Unlock(wrongPassword)
	require.Error(t, err)

	err = keyring.Unlock(password)
	require.NoError(t, err)

	err = keyring.Lock(password)
	require.NoError(t, err)
}

func TestKeyringChangePassword(t *testing.T) {
	keyring, err := newTestKeyring()
	require.NoError(t, err)

	err = keyring.Unlock(password)
	require.NoError(t, err)

	err = keyring.ChangePassword(password, newPassword)
	require.EqualError(t, domain.ErrKeyringUnlocked, err.Error())

	err = keyring.Lock(password)
	require.NoError(t, err)

	err = keyring.ChangePassword(wrongPassword, newPassword)
	require.EqualError(t, domain.ErrKeyringInvalidPassword, err.Error())

	err = keyring.ChangePassword(password, newPassword)
	require.NoError(t, err)
	require.Equal(
		t, btcutil.Hash160([]byte(newPassword)), keyring.PasswordHash,
	)

	err = keyring.Unlock(newPassword)
	require.NoError(t, err)

	keys, err := keyring.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 2)

	err = keyring.Lock(newPassword)
	require.NoError(t, err)
}

func TestKeyringImportKeys(t *testing.T) {
	keyring, err := newTestKeyring()
	require.NoError(t, err)

	prvkey, _ := btcec.PrivKeyFromBytes(h2b(
		"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
	))
	newKeys := newKeyMap(t, &signer.SecretKey{Key: prvkey})

	err = keyring.ImportKeys(password, newKeys)
	require.EqualError(t, domain.ErrKeyringLocked, err.Error())

	err = keyring.Unlock(password)
	require.NoError(t, err)

	err = keyring.ImportKeys(wrongPassword, newKeys)
	require.EqualError(t, domain.ErrKeyringInvalidPassword, err.Error())

	err = keyring.ImportKeys(password, nil)
	require.EqualError(t, domain.ErrKeyringMissingKeys, err.Error())

	err = keyring.ImportKeys(password, newKeys)
	require.NoError(t, err)

	keys, err := keyring.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 3)

	err = keyring.ImportKeys(password, newKeys)
	require.EqualError(t, domain.ErrKeyringKeyAlreadyExists, err.Error())

	err = keyring.Lock(password)
	require.NoError(t, err)
}

func TestKeyringListSigners(t *testing.T) {
	keyring, err := newTestKeyring()
	require.NoError(t, err)

	err = keyring.Unlock(password)
	require.NoError(t, err)

	info, err := keyring.ListSigners()
	require.NoError(t, err)
	require.Len(t, info, 2)

	byType := make(map[string]domain.SignerInfo)
	for _, signerInfo := range info {
		require.NotEmpty(t, signerInfo.Identity)
		require.NotEmpty(t, signerInfo.PublicKey)
		require.Equal(t, uint32(signer.DefaultSignerOrdering), signerInfo.Ordering)
		byType[signerInfo.Type] = signerInfo
	}
	require.Contains(t, byType, "private-key")
	require.Contains(t, byType, "extended-key")
	require.NotEmpty(t, byType["extended-key"].Fingerprint)
	require.Equal(t, "m/84'/1'", byType["extended-key"].Path)

	err = keyring.Lock(password)
	require.NoError(t, err)

	info, err = keyring.ListSigners()
	require.EqualError(t, domain.ErrKeyringLocked, err.Error())
	require.Nil(t, info)
}

func TestKeyringSignPsbt(t *testing.T) {
	ctx := context.Background()

	keyring, err := newTestKeyring()
	require.NoError(t, err)

	master, err := hdkeychain.NewMaster(testSeed, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	fullPath, err := path.ParseDerivationPath("m/84'/1'/0'/0/0")
	require.NoError(t, err)
	childPub := deriveTestPubKey(t, master, fullPath)

	ptx := newTestPtx(t)
	script, err := txscript.PayToAddrScript(newTestWitnessAddress(t, childPub))
	require.NoError(t, err)
	ptx.Inputs[0].WitnessUtxo = wire.NewTxOut(100000, script)

	masterPub, err := master.ECPubKey()
	require.NoError(t, err)
	var fingerprint signer.Fingerprint
	copy(fingerprint[:], btcutil.Hash160(masterPub.SerializeCompressed()))
	ptx.Inputs[0].Bip32Derivation = []*psbt.Bip32Derivation{{
		PubKey:               childPub.SerializeCompressed(),
		MasterKeyFingerprint: fingerprint.Uint32(),
		Bip32Path:            fullPath,
	}}

	err = keyring.SignPsbt(ctx, ptx)
	require.EqualError(t, domain.ErrKeyringLocked, err.Error())

	err = keyring.Unlock(password)
	require.NoError(t, err)

	err = keyring.SignPsbt(ctx, ptx)
	require.NoError(t, err)
	require.Len(t, ptx.Inputs[0].PartialSigs, 1)
	require.Equal(
		t, childPub.SerializeCompressed(), ptx.Inputs[0].PartialSigs[0].PubKey,
	)

	err = keyring.Lock(password)
	require.NoError(t, err)
}

func newTestKeyring() (*domain.Keyring, error) {
	keymap := make(signer.KeyMap)
	prvkey, _ := btcec.PrivKeyFromBytes(testPrvkeyBytes)
	master, err := hdkeychain.NewMaster(testSeed, &chaincfg.RegressionNetParams)
	if err != nil {
		return nil, err
	}
	scope, err := path.ParseDerivationPath("m/84'/1'")
	if err != nil {
		return nil, err
	}
	masterPub, err := master.ECPubKey()
	if err != nil {
		return nil, err
	}
	var fingerprint signer.Fingerprint
	copy(fingerprint[:], btcutil.Hash160(masterPub.SerializeCompressed()))

	for _, secret := range []*signer.SecretKey{
		{Key: prvkey},
		{
			XPrv: master, Path: scope,
			Origin: &signer.KeyOrigin{MasterFingerprint: fingerprint},
		},
	} {
		pubkey, err := secret.PublicKey()
		if err != nil {
			return nil, err
		}
		keymap[pubkey] = secret
	}
	return domain.NewKeyring(keymap, password, regtest)
}

func newTestKeyMap(t *testing.T) signer.KeyMap {
	keyring, err := newTestKeyring()
	require.NoError(t, err)
	require.NotNil(t, keyring)

	prvkey, _ := btcec.PrivKeyFromBytes(testPrvkeyBytes)
	master, err := hdkeychain.NewMaster(testSeed, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	scope, err := path.ParseDerivationPath("m/84'/1'")
	require.NoError(t, err)
	masterPub, err := master.ECPubKey()
	require.NoError(t, err)
	var fingerprint signer.Fingerprint
	copy(fingerprint[:], btcutil.Hash160(masterPub.SerializeCompressed()))

	return newKeyMap(t, &signer.SecretKey{Key: prvkey}, &signer.SecretKey{
		XPrv: master, Path: scope,
		Origin: &signer.KeyOrigin{MasterFingerprint: fingerprint},
	})
}

func newKeyMap(t *testing.T, secrets ...*signer.SecretKey) signer.KeyMap {
	keymap := make(signer.KeyMap)
	for _, secret := range secrets {
		pubkey, err := secret.PublicKey()
		require.NoError(t, err)
		keymap[pubkey] = secret
	}
	return keymap
}

func newTestPtx(t *testing.T) *psbt.Packet {
	prevHash, err := chainhash.NewHashFromStr(fmt.Sprintf("%064d", 1))
	require.NoError(t, err)
	tx := wire.NewMsgTx(2)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(prevHash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(
		90000, h2b("0014000102030405060708090a0b0c0d0e0f10111213"),
	))
	ptx, err := psbt.NewFromUnsignedTx(tx)
	require.NoError(t, err)
	return ptx
}

func newTestWitnessAddress(
	t *testing.T, pubkey *btcec.PublicKey,
) *btcutil.AddressWitnessPubKeyHash {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pubkey.SerializeCompressed()),
		&chaincfg.RegressionNetParams,
	)
	require.NoError(t, err)
	return addr
}

func deriveTestPubKey(
	t *testing.T, xprv *hdkeychain.ExtendedKey,
	derivationPath path.DerivationPath,
) *btcec.PublicKey {
	var err error
	for _, step := range derivationPath {
		xprv, err = xprv.Derive(step)
		require.NoError(t, err)
	}
	pubkey, err := xprv.ECPubKey()
	require.NoError(t, err)
	return pubkey
}

func h2b(str string) []byte {
	buf, _ := hex.DecodeString(str)
	return buf
}
