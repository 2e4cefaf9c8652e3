package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"xdao.co/pset/pset"
	"xdao.co/pset/psettext"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file|-]",
		Short: "Print a JSON summary of a PSET",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseText(cmd, args)
			if err != nil {
				return err
			}
			s, err := summarize(p)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(s)
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Re-render a PSET as canonical text",
		Long:  `normalize parses a PSET and prints its canonical text. The output may differ from the input while denoting the same PSET.`,
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseText(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), psettext.Render(p))
			return err
		},
	}
}

func newCIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cid [file|-]",
		Short: "Print the CID of a PSET's canonical encoding",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := parseText(cmd, args)
			if err != nil {
				return err
			}
			id, err := p.ID()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}
}

type summary struct {
	CID              string          `json:"cid"`
	TxVersion        uint32          `json:"txVersion"`
	FallbackLocktime *uint32         `json:"fallbackLocktime,omitempty"`
	TxModifiable     *uint8          `json:"txModifiable,omitempty"`
	Inputs           []inputSummary  `json:"inputs"`
	Outputs          []outputSummary `json:"outputs"`
	Proprietary      int             `json:"proprietaryEntries,omitempty"`
	Unknown          int             `json:"unknownEntries,omitempty"`
}

type inputSummary struct {
	OutPoint            string  `json:"outpoint"`
	Sequence            *uint32 `json:"sequence,omitempty"`
	UtxoAsset           string  `json:"utxoAsset,omitempty"`
	UtxoValue           *uint64 `json:"utxoValue,omitempty"`
	UtxoBlinded         bool    `json:"utxoBlinded,omitempty"`
	UtxoRangeproofBytes int     `json:"utxoRangeproofBytes,omitempty"`
	PartialSigs         int     `json:"partialSigs"`
	Derivations         int     `json:"derivations"`
	Finalized           bool    `json:"finalized"`
}

type outputSummary struct {
	Amount  *uint64 `json:"amount,omitempty"`
	Asset   string  `json:"asset,omitempty"`
	Script  string  `json:"script"`
	Blinded bool    `json:"blinded"`
}

func summarize(p *pset.Pset) (summary, error) {
	id, err := p.ID()
	if err != nil {
		return summary{}, err
	}
	s := summary{
		CID:              id.String(),
		TxVersion:        p.Global.TxVersion,
		FallbackLocktime: p.Global.FallbackLocktime,
		TxModifiable:     p.Global.TxModifiable,
		Inputs:           make([]inputSummary, 0, len(p.Inputs)),
		Outputs:          make([]outputSummary, 0, len(p.Outputs)),
		Proprietary:      len(p.Global.Proprietary),
		Unknown:          len(p.Global.Unknown),
	}
	for i := range p.Inputs {
		in := &p.Inputs[i]
		is := inputSummary{
			OutPoint:            in.OutPoint(),
			Sequence:            in.Sequence,
			UtxoRangeproofBytes: len(in.UtxoRangeproof),
			PartialSigs:         len(in.PartialSigs),
			Derivations:         len(in.Bip32Derivations),
			Finalized:           in.FinalScriptSig != nil || in.FinalScriptWitness != nil,
		}
		if u := in.WitnessUtxo; u != nil {
			if a, ok := u.Asset.Explicit(); ok {
				is.UtxoAsset = hex.EncodeToString(a[:])
			}
			if v, ok := u.Value.Explicit(); ok {
				is.UtxoValue = &v
			}
			is.UtxoBlinded = u.Asset.IsConfidential() || u.Value.IsConfidential()
		}
		s.Inputs = append(s.Inputs, is)
		s.Proprietary += len(in.Proprietary)
		s.Unknown += len(in.Unknown)
	}
	for i := range p.Outputs {
		out := &p.Outputs[i]
		o := outputSummary{
			Amount:  out.Amount,
			Script:  hex.EncodeToString(out.Script),
			Blinded: out.IsBlinded(),
		}
		if out.Asset != nil {
			o.Asset = hex.EncodeToString(out.Asset[:])
		}
		s.Outputs = append(s.Outputs, o)
		s.Proprietary += len(out.Proprietary)
		s.Unknown += len(out.Unknown)
	}
	return s, nil
}
