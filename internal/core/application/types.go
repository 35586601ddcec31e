package application

import (
	"github.com/shopspring/decimal"
)

var satsPerBtc = decimal.NewFromInt(100000000)

// BuildInfo holds info about the running binary, set at build time.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

type KeyringStatus struct {
	IsInitialized bool `json:"initialized"`
	IsUnlocked    bool `json:"unlocked"`
}

type KeyringInfo struct {
	Network   string       `json:"network"`
	Signers   []SignerInfo `json:"signers,omitempty"`
	BuildInfo BuildInfo    `json:"build_info"`
}

// SignerInfo mirrors domain.SignerInfo field by field to make the two types
// convertible.
type SignerInfo struct {
	Identity    string `json:"identity"`
	Type        string `json:"type"`
	Ordering    uint32 `json:"ordering"`
	PublicKey   string `json:"public_key"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Path        string `json:"path,omitempty"`
}

type SignersInfo []SignerInfo

func (info SignersInfo) Identities() []string {
	identities := make([]string, 0, len(info))
	for _, in := range info {
		identities = append(identities, in.Identity)
	}
	return identities
}

type PtxInput struct {
	TxID        string          `json:"txid"`
	VOut        uint32          `json:"vout"`
	Value       decimal.Decimal `json:"value"`
	SignedBy    []string        `json:"signed_by,omitempty"`
	SighashType string          `json:"sighash_type,omitempty"`
	Finalized   bool            `json:"finalized"`
}

type PtxOutput struct {
	Address string          `json:"address,omitempty"`
	Script  string          `json:"script"`
	Value   decimal.Decimal `json:"value"`
}

type PtxInfo struct {
	Version    int32           `json:"version"`
	Inputs     []PtxInput      `json:"inputs"`
	Outputs    []PtxOutput     `json:"outputs"`
	Fee        decimal.Decimal `json:"fee"`
	IsComplete bool            `json:"is_complete"`
}

func btcAmount(value int64) decimal.Decimal {
	return decimal.NewFromInt(value).Div(satsPerBtc)
}
