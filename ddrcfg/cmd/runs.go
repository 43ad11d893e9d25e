package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ddrconfig/datarecording"
)

var runsCmd = &cobra.Command{
	Use:   "runs <database>",
	Short: "Print the runs recorded with compute --record.",
	Long: "Print the DIMM addresses and chip-select windows of the runs " +
		"recorded in a database, so that runs with different options can " +
		"be compared.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		_, err = os.Stat(args[0])
		if err != nil {
			return err
		}

		reader, err := datarecording.NewReader(args[0])
		if err != nil {
			return err
		}
		defer func() {
			if cerr := reader.Close(); err == nil {
				err = cerr
			}
		}()

		runID, _ := cmd.Flags().GetString("run")

		return printRuns(cmd.Context(), cmd.OutOrStdout(), reader, runID)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().String("run", "", "Only print the run with this ID.")
}

func printRuns(
	ctx context.Context,
	out io.Writer,
	reader datarecording.DataReader,
	runID string,
) error {
	reader.MapTable(datarecording.DimmTable, datarecording.DimmRow{})
	reader.MapTable(datarecording.ChipSelectTable,
		datarecording.ChipSelectRow{})

	where := "Event = ?"
	args := []any{"assigned"}
	if runID != "" {
		where += " AND RunID = ?"
		args = append(args, runID)
	}

	dimms, err := reader.Query(ctx, datarecording.DimmTable,
		datarecording.QueryParams{
			Where:   where,
			Args:    args,
			OrderBy: "rowid",
		})
	if err != nil {
		return err
	}

	for _, row := range dimms {
		d := row.(*datarecording.DimmRow)
		fmt.Fprintf(out, "%s memctl %d dimm %d: base 0x%09x size 0x%x\n",
			d.RunID, d.Controller, d.Slot, d.BaseAddress,
			d.Capacity>>d.CapAdjust)
	}

	where = "Valid = ?"
	args = []any{true}
	if runID != "" {
		where += " AND RunID = ?"
		args = append(args, runID)
	}

	chipSelects, err := reader.Query(ctx, datarecording.ChipSelectTable,
		datarecording.QueryParams{
			Where:   where,
			Args:    args,
			OrderBy: "rowid",
		})
	if err != nil {
		return err
	}

	for _, row := range chipSelects {
		cs := row.(*datarecording.ChipSelectRow)
		_, err = fmt.Fprintf(out, "%s memctl %d cs%d: bnds 0x%08x\n",
			cs.RunID, cs.Controller, cs.ChipSelect, cs.Bnds)
		if err != nil {
			return err
		}
	}

	return nil
}
