package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/ddrconfig/ddr"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the steps of the pipeline.",
	Long: "List the steps of the pipeline. The names can be passed to " +
		"`compute --start-step`.",
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, s := range ddr.AllSteps() {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", int(s), s)
		}
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
