package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raine/glowscan-bot/internal/page"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze an ingredient list",
		Long: `Analyze sends an ingredient list to the GlowScan service. The list is
taken from --ingredients, or read from stdin when the flag is not given.

Examples:
  glowscan analyze --type serum --ingredients "Aqua, Niacinamide"
  pbpaste | glowscan analyze --pdf report.pdf`,
		Args: cobra.NoArgs,
		RunE: runAnalyzeCmd,
	}

	cmd.Flags().StringP("ingredients", "i", "", "Ingredient list (default: read stdin)")
	cmd.Flags().String("pdf", "", "Write the analysis as PDF to this path")
	cmd.Flags().String("png", "", "Write the analysis as PNG to this path")

	return cmd
}

func runAnalyzeCmd(cmd *cobra.Command, _ []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	targets, err := exportTargets(cmd)
	if err != nil {
		return err
	}

	text, _ := cmd.Flags().GetString("ingredients")
	if !cmd.Flags().Changed("ingredients") {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(b)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exporter := newLazyRenderer(opts.cfg.ExportOptions()...)
	defer exporter.Close()

	view := newTermView(cmd.OutOrStdout(), opts.productType)
	view.SetIngredients(text)
	p := page.New(view, opts.client(), exporter)

	return analyzeAndExport(ctx, p, view, targets)
}
