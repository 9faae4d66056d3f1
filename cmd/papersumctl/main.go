// Command papersumctl runs the summarization pipeline and inspects history
// from a shell, without the HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"papersum/internal/config"
)

func main() {
	_ = godotenv.Load(".env")
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config
	root := &cobra.Command{
		Use:           "papersumctl",
		Short:         "Summarize academic papers and browse summary history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = loaded
			return nil
		},
	}
	root.AddCommand(newSummarizeCmd(&cfg))
	root.AddCommand(newHistoryCmd(&cfg))
	root.AddCommand(newMigrateCmd(&cfg))
	root.AddCommand(newTokenCmd(&cfg))
	return root
}
