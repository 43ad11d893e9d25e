package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ddrconfig/ddr"
	"github.com/sarchlab/ddrconfig/ddr/program"
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute and dump the DDR configuration of a board.",
	Long: "Compute and dump the DDR configuration of a board. With --set, " +
		"the options of the first run are edited and the pipeline is run " +
		"again from --start-step.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		record, _ := cmd.Flags().GetString("record")
		sets, _ := cmd.Flags().GetStringArray("set")
		startName, _ := cmd.Flags().GetString("start-step")

		edits := make([]optionEdit, 0, len(sets))
		for _, expr := range sets {
			e, err := parseOptionEdit(expr)
			if err != nil {
				return err
			}
			edits = append(edits, e)
		}

		start, err := ddr.ParseStep(startName)
		if err != nil {
			return err
		}

		s, err := openSession(cmd, record)
		if err != nil {
			return err
		}
		defer s.closeInto(&err)

		out := cmd.OutOrStdout()
		if len(edits) == 0 {
			return s.compute(out)
		}

		return s.recompute(out, edits, start)
	},
}

func init() {
	rootCmd.AddCommand(computeCmd)
	computeCmd.Flags().StringArray("set", nil,
		"Edit an option after the first run, as ctrlN.key=value.")
	computeCmd.Flags().String("start-step", ddr.StepAssignAddresses.String(),
		"The step to run again from after editing options.")
	computeCmd.Flags().String("record", "",
		"Record the run into <record>.sqlite3.")
}

func (s *session) compute(out io.Writer) error {
	sdram := ddr.NewSdram(s.pipeline, program.NewDumper(out))

	total, err := sdram.Init()
	if err != nil {
		return err
	}

	return s.report(out, sdram.State(), total)
}

func (s *session) recompute(
	out io.Writer,
	edits []optionEdit,
	start ddr.Step,
) error {
	state := ddr.NewState(s.pipeline.Layout())

	_, err := s.pipeline.Compute(state, ddr.StepGetSPD)
	if err != nil {
		return err
	}

	err = applyOptionEdits(state.Opts, edits)
	if err != nil {
		return err
	}

	sdram := ddr.NewSdram(s.pipeline, program.NewDumper(out))

	total, err := sdram.Reprogram(state, start)
	if err != nil {
		return err
	}

	return s.report(out, state, total)
}

func (s *session) report(out io.Writer, state *ddr.State, total uint64) error {
	for i := range state.Dimms {
		for j := range state.Dimms[i] {
			d := state.Dimms[i][j]
			if !d.Present() {
				continue
			}

			fmt.Fprintf(out, "memctl %d dimm %d: base 0x%09x size 0x%x\n",
				i, j, d.BaseAddress, d.AdjustedCapacity(state.CapAdjust[i]))
		}
	}

	if state.MemctlInterleaving {
		fmt.Fprintf(out, "controllers interleaved (%s)\n",
			state.InterleavingMode)
	}

	if state.RankInterleaving {
		fmt.Fprintf(out, "chip selects interleaved (%s)\n",
			state.RankInterleavingMode)
	}

	_, err := fmt.Fprintf(out, "%s: total memory 0x%x\n", s.board.Name, total)

	return err
}
