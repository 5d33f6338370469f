package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/njchilds90/htmlclean"
)

// logger is built once the flags and environment are known.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   "htmlclean",
	Short: "Lenient whitelist-based HTML sanitizer",
	Long: `htmlclean scans untrusted HTML such as email bodies, drops everything the
whitelist does not recognize and prints balanced markup.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLoggerFromEnv()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(tokensCmd)

	rootCmd.PersistentFlags().String("mode", htmlclean.Normalize.String(), "fidelity mode (normalize|preserve-valid|preserve-all)")
	rootCmd.PersistentFlags().Int("clip", 0, "scan at most this many characters (0 = unbounded)")
	rootCmd.PersistentFlags().StringSlice("whitelist", nil, "TOML whitelist file; later files take precedence")
	rootCmd.PersistentFlags().Bool("replace-whitelist", false, "do not fall back to the built-in whitelist")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color flag for output written to f.
func useColor(cmd *cobra.Command, f *os.File) bool {
	mode, _ := cmd.Root().PersistentFlags().GetString("color")
	return mode == "on" || (mode == "auto" && isTerminal(f))
}
