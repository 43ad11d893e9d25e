package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ddrconfig/ddr"
	"github.com/sarchlab/ddrconfig/ddr/addressing"
	"github.com/sarchlab/ddrconfig/ddr/param"
)

var locateCmd = &cobra.Command{
	Use:   "locate [address]...",
	Short: "Find the controller and chip select that serve addresses.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		addresses := make([]uint64, 0, len(args))
		for _, arg := range args {
			a, err := strconv.ParseUint(arg, 0, 64)
			if err != nil {
				return fmt.Errorf("bad address %q: %w", arg, err)
			}
			addresses = append(addresses, a)
		}

		s, err := openSession(cmd, "")
		if err != nil {
			return err
		}
		defer s.closeInto(&err)

		state := ddr.NewState(s.pipeline.Layout())
		_, err = s.pipeline.Compute(state, ddr.StepGetSPD)
		if err != nil {
			return err
		}

		mapper := addressing.NewChipSelectMapper(state.Regs,
			state.MemctlInterleaving,
			interleavingGranularity(state.InterleavingMode))

		out := cmd.OutOrStdout()
		for _, a := range addresses {
			t, found := mapper.Find(a)
			if !found {
				fmt.Fprintf(out, "0x%09x: not mapped\n", a)
				continue
			}

			fmt.Fprintf(out, "0x%09x: memctl %d cs%d\n",
				a, t.Controller, t.ChipSelect)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
}

// interleavingGranularity returns how many consecutive bytes one controller
// serves before the next one takes over.
func interleavingGranularity(mode param.InterleavingMode) uint64 {
	switch mode {
	case param.CacheLineInterleaving:
		return 64
	case param.PageInterleaving:
		return 4 * 1024
	default:
		return 8 * 1024
	}
}
