package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tdsr/internal/app"
)

var (
	flagDebug   bool
	flagCommand string
)

var rootCmd = &cobra.Command{
	Use:   "tdsr [program [args...]]",
	Short: "tdsr – terminal screen reader",
	Long: "tdsr runs a shell (or any TTY program) on a pseudo-terminal and\n" +
		"speaks its output while passing your keystrokes through untouched.",
	Args: cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		code := app.Run(app.Options{
			Debug:   flagDebug,
			Command: flagCommand,
			Argv:    args,
		})
		os.Exit(code)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().BoolVarP(&flagDebug, "debug", "d", false, "write a debug log to tdsr.log")
	rootCmd.Flags().StringVarP(&flagCommand, "command", "c", "", "run this command in the shell and exit with it")
	// Flags after the program name belong to the program.
	rootCmd.Flags().SetInterspersed(false)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
