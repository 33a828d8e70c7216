package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gflarity/arxiv_digest/internal/app"
)

var sourceCmd = &cobra.Command{
	Use:   "source <arxiv-id>",
	Short: "Print the normalized LaTeX text of one paper",
	Long: `Source downloads the source archive of a paper, resolves its main document
and prints the text exactly as it would be sent to the model.`,
	Args: cobra.ExactArgs(1),
	RunE: printSource,
}

func init() {
	rootCmd.AddCommand(sourceCmd)
}

func printSource(cmd *cobra.Command, args []string) error {
	a, err := app.New(cfg, logger, app.Options{DryRun: true, Out: os.Stdout})
	if err != nil {
		return err
	}

	text, err := a.Processor.Content(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("no usable LaTeX source for %s", args[0])
	}
	fmt.Fprintln(os.Stdout, text)
	return nil
}
