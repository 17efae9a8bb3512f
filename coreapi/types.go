// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package coreapi

import (
	"github.com/btcsuite/coldsign/multisig"
	"github.com/btcsuite/coldsign/wallet"
	"github.com/lightningnetwork/lnd/fn/v2"
)

// Response is the result of every call. Exactly one of Data and ErrorCode is
// set.
type Response struct {
	Data         any    `json:"data,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// OK reports whether the call succeeded.
func (r Response) OK() bool {
	return r.ErrorCode == ""
}

// ContextParams describe the signing wallet to the parse, check and sign
// calls.
type ContextParams struct {
	// MasterFingerprint is the 8 hex character fingerprint of the root
	// key.
	MasterFingerprint string `json:"master_fingerprint"`

	// KnownKeys maps path prefixes to extended public keys.
	KnownKeys map[string]string `json:"known_keys,omitempty"`

	// MultisigConfig is an optional multisig wallet descriptor.
	MultisigConfig string `json:"multisig_config,omitempty"`
}

// InputView is the JSON form of wallet.ParsedInput.
type InputView struct {
	Address    *string `json:"address"`
	Amount     string  `json:"amount"`
	Value      uint64  `json:"value"`
	Path       *string `json:"path"`
	Signed     uint32  `json:"signed"`
	Required   uint32  `json:"required"`
	IsMultisig bool    `json:"is_multisig"`
}

// OutputView is the JSON form of wallet.ParsedOutput.
type OutputView struct {
	Address    *string `json:"address"`
	Amount     string  `json:"amount"`
	Value      uint64  `json:"value"`
	Path       *string `json:"path"`
	IsMultisig bool    `json:"is_multisig"`
	IsDust     bool    `json:"is_dust"`
}

// OverviewView is the JSON form of wallet.OverviewTx.
type OverviewView struct {
	Amount              string   `json:"amount"`
	Fee                 string   `json:"fee"`
	Network             string   `json:"network"`
	SignStatus          *string  `json:"sign_status"`
	From                []string `json:"from"`
	To                  []string `json:"to"`
	FeeLargerThanAmount bool     `json:"fee_larger_than_amount"`
	IsMultisig          bool     `json:"is_multisig"`
}

// DetailView is the JSON form of wallet.DetailTx.
type DetailView struct {
	Inputs            []InputView  `json:"inputs"`
	Outputs           []OutputView `json:"outputs"`
	TotalInputAmount  string       `json:"total_input_amount"`
	TotalOutputAmount string       `json:"total_output_amount"`
	FeeAmount         string       `json:"fee_amount"`
	Network           string       `json:"network"`
	SignStatus        *string      `json:"sign_status"`
	VirtualSize       *string      `json:"virtual_size"`
	FeeRate           *string      `json:"fee_rate"`
}

// TxView is the JSON form of wallet.ParsedTx.
type TxView struct {
	Overview OverviewView `json:"overview"`
	Detail   DetailView   `json:"detail"`
}

// SignedView is the result of a sign call.
type SignedView struct {
	// Psbt is the signed packet in base64.
	Psbt         string   `json:"psbt"`
	SignedInputs []uint32 `json:"signed_inputs"`
}

// MultisigView is the JSON form of multisig.WalletConfig.
type MultisigView struct {
	Creator     string       `json:"creator,omitempty"`
	Name        string       `json:"name"`
	Threshold   uint32       `json:"threshold"`
	Total       uint32       `json:"total"`
	Format      string       `json:"format"`
	Network     string       `json:"network"`
	VerifyCode  string       `json:"verify_code"`
	IsMixedPath bool         `json:"is_mixed_path"`
	Signers     []SignerView `json:"signers"`
}

// SignerView is one signer of a MultisigView.
type SignerView struct {
	Fingerprint string `json:"fingerprint"`
	Xpub        string `json:"xpub"`
	Derivation  string `json:"derivation"`
}

// NetworkView describes a supported network.
type NetworkView struct {
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	CoinType uint32 `json:"coin_type"`
}

// optionPtr maps an option to a nil or non-nil pointer.
func optionPtr(o fn.Option[string]) *string {
	var p *string
	o.WhenSome(func(s string) {
		p = &s
	})

	return p
}

func newTxView(tx *wallet.ParsedTx) *TxView {
	view := &TxView{
		Overview: OverviewView{
			Amount:              tx.Overview.Amount,
			Fee:                 tx.Overview.Fee,
			Network:             tx.Overview.Network,
			SignStatus:          optionPtr(tx.Overview.SignStatus),
			From:                tx.Overview.From,
			To:                  tx.Overview.To,
			FeeLargerThanAmount: tx.Overview.FeeLargerThanAmount,
			IsMultisig:          tx.Overview.IsMultisig,
		},
		Detail: DetailView{
			Inputs: make(
				[]InputView, 0, len(tx.Detail.Inputs),
			),
			Outputs: make(
				[]OutputView, 0, len(tx.Detail.Outputs),
			),
			TotalInputAmount:  tx.Detail.TotalInputAmount,
			TotalOutputAmount: tx.Detail.TotalOutputAmount,
			FeeAmount:         tx.Detail.FeeAmount,
			Network:           tx.Detail.Network,
			SignStatus:        optionPtr(tx.Detail.SignStatus),
			VirtualSize:       optionPtr(tx.Detail.VirtualSize),
			FeeRate:           optionPtr(tx.Detail.FeeRate),
		},
	}

	for _, in := range tx.Detail.Inputs {
		view.Detail.Inputs = append(view.Detail.Inputs, InputView{
			Address:    optionPtr(in.Address),
			Amount:     in.Amount,
			Value:      in.Value,
			Path:       optionPtr(in.Path),
			Signed:     in.SignStatus.Signed,
			Required:   in.SignStatus.Required,
			IsMultisig: in.IsMultisig,
		})
	}
	for _, out := range tx.Detail.Outputs {
		view.Detail.Outputs = append(view.Detail.Outputs, OutputView{
			Address:    optionPtr(out.Address),
			Amount:     out.Amount,
			Value:      out.Value,
			Path:       optionPtr(out.Path),
			IsMultisig: out.IsMultisig,
			IsDust:     out.IsDust,
		})
	}

	return view
}

func newMultisigView(cfg *multisig.WalletConfig) *MultisigView {
	view := &MultisigView{
		Creator:     cfg.Creator,
		Name:        cfg.Name,
		Threshold:   cfg.Threshold,
		Total:       cfg.Total,
		Format:      cfg.Format.String(),
		Network:     cfg.Network.Name(),
		VerifyCode:  cfg.VerifyCode,
		IsMixedPath: cfg.IsMixedPath(),
		Signers:     make([]SignerView, 0, len(cfg.XpubItems)),
	}
	for _, item := range cfg.XpubItems {
		view.Signers = append(view.Signers, SignerView(item))
	}

	return view
}
