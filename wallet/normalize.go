// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"fmt"
	"sort"

	"github.com/btcsuite/coldsign/netparams"
	"github.com/btcsuite/coldsign/pkg/btcunit"
	"github.com/btcsuite/coldsign/signerr"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	statusUnsigned     = "Unsigned"
	statusCompleted    = "Completed"
	statusPartlySigned = "Partly Signed"
)

// SignStatus counts the signatures an input holds against the number it
// needs.
type SignStatus struct {
	Signed   uint32
	Required uint32
}

// complete reports whether the input has all the signatures it needs.
func (s SignStatus) complete() bool {
	return s.Signed >= s.Required
}

// ParsedInput is the display form of a transaction input.
type ParsedInput struct {
	// Address is the address of the spent output.
	Address fn.Option[string]

	// Amount is Value rendered in the network's unit.
	Amount string

	// Value is the spent amount in satoshis.
	Value uint64

	// Path is set when the input is derived from the signing wallet.
	Path fn.Option[string]

	SignStatus SignStatus
	IsMultisig bool
}

// ParsedOutput is the display form of a transaction output.
type ParsedOutput struct {
	// Address is None for data carrier outputs.
	Address fn.Option[string]

	// Amount is Value rendered in the network's unit.
	Amount string

	// Value is the output amount in satoshis.
	Value uint64

	// Path is set only for verified change, outputs paying back to the
	// signing wallet.
	Path fn.Option[string]

	IsMultisig bool

	// IsDust is set for outputs below the relay dust limit.
	IsDust bool
}

// isExternal reports whether the output leaves the wallet. An output with a
// present but empty path is treated like one without a path.
func (o *ParsedOutput) isExternal() bool {
	return o.Path.IsNone() || o.Path.UnwrapOr("") == ""
}

// OverviewTx is the summary shown to the user for confirmation.
type OverviewTx struct {
	// Amount is the value leaving the wallet, the sum of external outputs.
	Amount      string
	AmountValue uint64

	Fee      string
	FeeValue uint64

	Network    string
	SignStatus fn.Option[string]

	// From and To are deduplicated and sorted.
	From []string
	To   []string

	// FeeLargerThanAmount warns that the fee exceeds Amount. It does not
	// make the transaction invalid.
	FeeLargerThanAmount bool

	IsMultisig bool
}

// DetailTx lists every input and output in transaction order.
type DetailTx struct {
	Inputs  []ParsedInput
	Outputs []ParsedOutput

	TotalInputAmount  string
	TotalOutputAmount string
	FeeAmount         string

	TotalInputValue  uint64
	TotalOutputValue uint64
	FeeValue         uint64

	Network    string
	SignStatus fn.Option[string]

	// VirtualSize and FeeRate are estimated for single key transactions
	// only.
	VirtualSize fn.Option[string]
	FeeRate     fn.Option[string]
}

// ParsedTx holds the two views of one transaction.
type ParsedTx struct {
	Overview OverviewTx
	Detail   DetailTx
}

// sumValues adds up values, failing on overflow.
func sumValues(values []uint64) (uint64, bool) {
	var total uint64
	for _, v := range values {
		next := total + v
		if next < total {
			return 0, false
		}
		total = next
	}

	return total, true
}

// Normalize builds the overview and detail views of a transaction. It fails
// with InvalidTransaction when outputs spend more than the inputs provide;
// a fee larger than the amount sent is only flagged.
func Normalize(inputs []ParsedInput, outputs []ParsedOutput,
	net netparams.Network) (*ParsedTx, error) {

	if len(inputs) == 0 {
		return nil, signerr.Newf(signerr.ErrNoInputs,
			"transaction has no inputs")
	}
	if len(outputs) == 0 {
		return nil, signerr.Newf(signerr.ErrNoOutputs,
			"transaction has no outputs")
	}

	inValues := make([]uint64, 0, len(inputs))
	for _, in := range inputs {
		inValues = append(inValues, in.Value)
	}

	var (
		outValues      = make([]uint64, 0, len(outputs))
		externalValues []uint64
	)
	for i := range outputs {
		outValues = append(outValues, outputs[i].Value)
		if outputs[i].isExternal() {
			externalValues = append(
				externalValues, outputs[i].Value,
			)
		}
	}

	totalIn, okIn := sumValues(inValues)
	totalOut, okOut := sumValues(outValues)
	amount, okAmount := sumValues(externalValues)
	if !okIn || !okOut || !okAmount {
		return nil, signerr.Newf(signerr.ErrInvalidTransaction,
			"value overflow")
	}

	// A negative fee is never shown.
	if totalIn < totalOut {
		return nil, signerr.Newf(signerr.ErrInvalidTransaction,
			"outputs (%d) exceed inputs (%d)", totalOut, totalIn)
	}
	fee := totalIn - totalOut

	isMultisig := false
	for _, in := range inputs {
		isMultisig = isMultisig || in.IsMultisig
	}

	unit := net.Unit()
	status := SignStatusLabel(inputs)

	tx := &ParsedTx{
		Overview: OverviewTx{
			Amount:              btcunit.FormatAmount(amount, unit),
			AmountValue:         amount,
			Fee:                 btcunit.FormatAmount(fee, unit),
			FeeValue:            fee,
			Network:             net.Name(),
			SignStatus:          status,
			From:                inputAddresses(inputs),
			To:                  outputAddresses(outputs),
			FeeLargerThanAmount: fee > amount,
			IsMultisig:          isMultisig,
		},
		Detail: DetailTx{
			Inputs:            inputs,
			Outputs:           outputs,
			TotalInputAmount:  btcunit.FormatAmount(totalIn, unit),
			TotalOutputAmount: btcunit.FormatAmount(totalOut, unit),
			FeeAmount:         btcunit.FormatAmount(fee, unit),
			TotalInputValue:   totalIn,
			TotalOutputValue:  totalOut,
			FeeValue:          fee,
			Network:           net.Name(),
			SignStatus:        status,
			VirtualSize:       fn.None[string](),
			FeeRate:           fn.None[string](),
		},
	}

	return tx, nil
}

// SignStatusLabel summarizes the signatures collected by all inputs. The
// checks run in a fixed order and the first match wins:
//
//  1. no inputs: None
//  2. no input has a signature: "Unsigned"
//  3. every input has all it needs: "Completed"
//  4. every input has the same partial count: "{signed}/{required} Signed"
//  5. anything else: "Partly Signed"
func SignStatusLabel(inputs []ParsedInput) fn.Option[string] {
	// Each rule reports whether it matched and, if so, the label.
	type rule func() (fn.Option[string], bool)

	rules := []rule{
		func() (fn.Option[string], bool) {
			return fn.None[string](), len(inputs) == 0
		},
		func() (fn.Option[string], bool) {
			for _, in := range inputs {
				if in.SignStatus.Signed != 0 {
					return fn.None[string](), false
				}
			}

			return fn.Some(statusUnsigned), true
		},
		func() (fn.Option[string], bool) {
			for _, in := range inputs {
				if !in.SignStatus.complete() {
					return fn.None[string](), false
				}
			}

			return fn.Some(statusCompleted), true
		},
		func() (fn.Option[string], bool) {
			first := inputs[0].SignStatus
			for _, in := range inputs[1:] {
				if in.SignStatus != first {
					return fn.None[string](), false
				}
			}

			return fn.Some(fmt.Sprintf("%d/%d Signed",
				first.Signed, first.Required)), true
		},
		func() (fn.Option[string], bool) {
			return fn.Some(statusPartlySigned), true
		},
	}

	for _, r := range rules {
		if label, matched := r(); matched {
			return label
		}
	}

	return fn.None[string]()
}

// inputAddresses returns the sorted distinct addresses of the inputs.
func inputAddresses(inputs []ParsedInput) []string {
	set := fn.NewSet[string]()
	for _, in := range inputs {
		in.Address.WhenSome(func(addr string) {
			set.Add(addr)
		})
	}

	return sortedSet(set)
}

// outputAddresses returns the sorted distinct addresses of the outputs
// leaving the wallet. A transaction paying only back to the wallet lists all
// of its outputs instead.
func outputAddresses(outputs []ParsedOutput) []string {
	external := fn.NewSet[string]()
	all := fn.NewSet[string]()
	for i := range outputs {
		out := &outputs[i]
		out.Address.WhenSome(func(addr string) {
			all.Add(addr)
			if out.isExternal() {
				external.Add(addr)
			}
		})
	}

	if len(external) == 0 {
		return sortedSet(all)
	}

	return sortedSet(external)
}

// sortedSet returns the members of a set in ascending order.
func sortedSet(set fn.Set[string]) []string {
	members := set.ToSlice()
	sort.Strings(members)

	return members
}
