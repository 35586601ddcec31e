package domain

import (
	"encoding/json"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/vulpemventures/lagoon/pkg/signer"
	path "github.com/vulpemventures/lagoon/pkg/wallet/derivation-path"
)

// KeyRecord is the at-rest serialization of a secret key, either a WIF for
// single keys or a base58 extended key with its optional derivation scope
// and key origin.
type KeyRecord struct {
	WIF         string `json:"wif,omitempty"`
	XPrv        string `json:"xprv,omitempty"`
	Path        string `json:"path,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	OriginPath  string `json:"origin_path,omitempty"`
}

// NewKeyRecord returns the at-rest form of the given secret, making sure its
// key material is bound to the given network.
func NewKeyRecord(
	secret *signer.SecretKey, net *chaincfg.Params,
) (*KeyRecord, error) {
	record := &KeyRecord{}
	if secret.IsExtended() {
		if !secret.XPrv.IsForNet(net) {
			return nil, ErrKeyringInvalidKeys
		}
		record.XPrv = secret.XPrv.String()
		if len(secret.Path) > 0 {
			record.Path = secret.Path.String()
		}
		if secret.Origin != nil {
			record.Fingerprint = secret.Origin.MasterFingerprint.String()
			if len(secret.Origin.Path) > 0 {
				record.OriginPath = secret.Origin.Path.String()
			}
		}
		return record, nil
	}

	wif, err := btcutil.NewWIF(secret.Key, net, true)
	if err != nil {
		return nil, err
	}
	record.WIF = wif.String()
	return record, nil
}

// Parse returns the key material serialized in the record, making sure it is
// bound to the given network.
func (r KeyRecord) Parse(net *chaincfg.Params) (*signer.SecretKey, error) {
	if r.WIF != "" {
		wif, err := btcutil.DecodeWIF(r.WIF)
		if err != nil {
			return nil, err
		}
		if !wif.IsForNet(net) {
			return nil, ErrKeyringInvalidKeys
		}
		return &signer.SecretKey{Key: wif.PrivKey}, nil
	}

	xprv, err := hdkeychain.NewKeyFromString(r.XPrv)
	if err != nil {
		return nil, err
	}
	if !xprv.IsForNet(net) {
		return nil, ErrKeyringInvalidKeys
	}

	secret := &signer.SecretKey{XPrv: xprv}
	if r.Path != "" {
		derivationPath, err := path.ParseDerivationPath(r.Path)
		if err != nil {
			return nil, err
		}
		secret.Path = derivationPath
	}
	if r.Fingerprint != "" {
		fingerprint, err := signer.FingerprintFromString(r.Fingerprint)
		if err != nil {
			return nil, err
		}
		origin := &signer.KeyOrigin{MasterFingerprint: fingerprint}
		if r.OriginPath != "" {
			originPath, err := path.ParseDerivationPath(r.OriginPath)
			if err != nil {
				return nil, err
			}
			origin.Path = originPath
		}
		secret.Origin = origin
	}
	return secret, nil
}

func serializeKeys(keys signer.KeyMap, net *chaincfg.Params) ([]byte, error) {
	records := make(map[string]KeyRecord, len(keys))
	for _, secret := range keys {
		pubkey, err := secret.PublicKey()
		if err != nil {
			return nil, err
		}
		record, err := NewKeyRecord(secret, net)
		if err != nil {
			return nil, err
		}
		records[pubkey] = *record
	}

	return json.Marshal(records)
}

func parseKeys(
	serializedKeys []byte, net *chaincfg.Params,
) (signer.KeyMap, error) {
	records := make(map[string]KeyRecord)
	if err := json.Unmarshal(serializedKeys, &records); err != nil {
		return nil, err
	}

	keys := make(signer.KeyMap, len(records))
	for pubkey, record := range records {
		secret, err := record.Parse(net)
		if err != nil {
			return nil, err
		}
		keys[pubkey] = secret
	}
	return keys, nil
}
