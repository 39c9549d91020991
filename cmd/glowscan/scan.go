package main

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
	"github.com/raine/glowscan-bot/internal/page"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Extract and analyze the ingredients on a label photo",
		Long: `Scan uploads a label photo for OCR, analyzes the extracted ingredients
and optionally exports the analysis.

Examples:
  # Extract and analyze
  glowscan scan label.jpg

  # Fix the OCR text before analyzing and export both formats
  glowscan scan label.jpg --ingredients "Aqua, Glycerin" --pdf out.pdf --png out.png`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("ingredients", "i", "", "Replace the extracted text before analyzing")
	cmd.Flags().String("pdf", "", "Write the analysis as PDF to this path")
	cmd.Flags().String("png", "", "Write the analysis as PNG to this path")

	return cmd
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	img, err := readImage(args[0])
	if err != nil {
		return err
	}
	override, _ := cmd.Flags().GetString("ingredients")
	targets, err := exportTargets(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	exporter := newLazyRenderer(opts.cfg.ExportOptions()...)
	defer exporter.Close()

	view := newTermView(cmd.OutOrStdout(), opts.productType)
	p := page.New(view, opts.client(), exporter)

	if err := p.SelectImage(ctx, img); err != nil {
		return err
	}
	if snap := p.Snapshot(); snap.ErrorShown && !snap.Warning {
		return errors.New(snap.ErrorText)
	}
	if override != "" {
		view.SetIngredients(override)
	}

	return analyzeAndExport(ctx, p, view, targets)
}

// exportTarget is one requested export.
type exportTarget struct {
	format export.Format
	path   string
}

func exportTargets(cmd *cobra.Command) ([]exportTarget, error) {
	var targets []exportTarget
	for _, f := range []export.Format{export.FormatPDF, export.FormatPNG} {
		path, _ := cmd.Flags().GetString(string(f))
		if path == "" {
			continue
		}
		if dir := filepath.Dir(path); dir != "." {
			if _, err := os.Stat(dir); err != nil {
				return nil, fmt.Errorf("--%s: %w", f, err)
			}
		}
		targets = append(targets, exportTarget{format: f, path: path})
	}
	return targets, nil
}

// analyzeAndExport runs the analysis and the requested exports. A failed
// analysis is returned as an error so the exit status reflects it.
func analyzeAndExport(ctx context.Context, p *page.Page, view *termView, targets []exportTarget) error {
	if err := p.Analyze(ctx); err != nil {
		return err
	}
	if snap := p.Snapshot(); snap.ErrorShown {
		return errors.New(snap.ErrorText)
	}

	for _, t := range targets {
		view.SetPath(t.format, t.path)
		if err := p.Download(ctx, t.format); err != nil {
			return err
		}
	}
	return nil
}

// readImage loads an image file from disk.
func readImage(path string) (*glowscan.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image: %w", err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%s is not an image (%s)", path, contentType)
	}

	log.Debug().Str("file", path).Int("bytes", len(data)).Str("contentType", contentType).Msg("read image")
	return &glowscan.Image{
		Name:        filepath.Base(path),
		Data:        data,
		ContentType: contentType,
	}, nil
}
