// Package cmd provides the command-line interface for ddrcfg.
package cmd

import (
	"errors"
	"io/fs"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "ddrcfg",
	Short: "ddrcfg computes the DDR controller configuration of a board " +
		"from the SPDs of its DIMMs.",
	Long: `ddrcfg computes the DDR controller configuration of a board ` +
		`from the SPDs of its DIMMs. It reports the address of every DIMM, ` +
		`the register images of the controllers, and the local access ` +
		`windows that cover the memory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		err := godotenv.Load()
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("board", "b", "board.yaml",
		"The board description file.")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false,
		"Print the progress of every step.")
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Print(err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

func verboseLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if !verbose {
		return nil
	}

	return log.New(os.Stderr, "", 0)
}
