// Package page wires a view to the GlowScan client, the UI state machine and
// the exporter. A Page is one upload-extract-analyze-download session.
package page

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
	"github.com/raine/glowscan-bot/internal/ui"
)

// ErrNothingToExport is returned by Download when no analysis result is on
// display.
var ErrNothingToExport = errors.New("page: no analysis result to export")

// Page is safe for concurrent use. Network calls block the calling goroutine
// only; a second call for the same action while one is running is refused
// with ui.ErrBusy.
type Page struct {
	view     View
	backend  Backend
	exporter Exporter
	ui       *ui.Controller

	mu       sync.Mutex
	selected *glowscan.Image
}

// New binds view to a fresh page session.
func New(view View, backend Backend, exporter Exporter) *Page {
	return &Page{
		view:     view,
		backend:  backend,
		exporter: exporter,
		ui:       ui.NewController(view.Render),
	}
}

// Snapshot returns what the page currently shows.
func (p *Page) Snapshot() ui.Snapshot {
	return p.ui.Snapshot()
}

// SelectedImage returns the last selected image, or nil.
func (p *Page) SelectedImage() *glowscan.Image {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selected
}

func (p *Page) setSelected(img *glowscan.Image) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.selected = img
}

// SelectImage records img as the selected file and extracts its ingredients.
// A nil img clears the selection display. It returns ui.ErrBusy, keeping the
// previous selection, if an extraction is already running; service failures
// end up in the view, not in the returned error.
func (p *Page) SelectImage(ctx context.Context, img *glowscan.Image) error {
	if img == nil {
		p.setSelected(nil)
		p.view.ShowFileName("")
		p.view.SetIngredients("")
		return nil
	}

	if err := p.ui.Begin(ui.ActionExtract); err != nil {
		p.view.Alert(msgExtractBusy)
		return err
	}
	p.setSelected(img)
	p.view.ShowFileName(fmt.Sprintf(fileNameFormat, img.Name))
	p.view.SetIngredients(TextExtracting)

	productType := p.view.ProductType()
	log.Info().Str("file", img.Name).Int("bytes", len(img.Data)).Str("productType", string(productType)).Msg("extracting ingredients")

	res, err := p.backend.ExtractIngredients(ctx, *img, productType)
	switch {
	case err != nil:
		log.Error().Err(err).Str("file", img.Name).Msg("ingredient extraction failed")
		p.view.SetIngredients(TextExtractFailed)
		p.ui.Fail(ui.ActionExtract, fmt.Sprintf(msgExtractFailed, err.Error()))
	case res.Warning != "":
		p.view.SetIngredients(res.Warning)
		p.ui.Warn(ui.ActionExtract, res.Warning)
	default:
		text := res.Ingredients
		if text == "" {
			text = TextNoneExtracted
		}
		p.view.SetIngredients(text)
		p.ui.Succeed(ui.ActionExtract, ui.ResultExtracted)
	}
	return nil
}

// Analyze submits the view's ingredients text for analysis. It returns a
// *ValidationError, without making a request, when there is nothing usable to
// analyze, and ui.ErrBusy if an analysis is already running.
func (p *Page) Analyze(ctx context.Context) error {
	text, err := validateIngredients(p.view.Ingredients())
	if err != nil {
		p.ui.Reject(err.Error())
		return err
	}

	if err := p.ui.Begin(ui.ActionAnalyze); err != nil {
		p.view.Alert(msgAnalyzeBusy)
		return err
	}

	productType := p.view.ProductType()
	log.Info().Int("chars", len(text)).Str("productType", string(productType)).Msg("analyzing ingredients")

	res, err := p.backend.AnalyzeIngredients(ctx, text, productType)
	if err != nil {
		log.Error().Err(err).Msg("ingredient analysis failed")
		p.ui.Fail(ui.ActionAnalyze, fmt.Sprintf(msgAnalyzeFailed, err.Error()))
		return nil
	}
	p.ui.Succeed(ui.ActionAnalyze, res.Result)
	return nil
}

// Download exports the displayed analysis result in format f and hands it to
// the view. Failures are reported to the user with an alert and returned;
// they never change the UI state.
func (p *Page) Download(ctx context.Context, f export.Format) error {
	snap := p.ui.Snapshot()
	if !snap.DownloadsShown {
		p.view.Alert(msgNoResult)
		return ErrNothingToExport
	}

	generating, failed, run := msgGeneratingPNG, msgPNGFailed, p.exporter.PNG
	if f == export.FormatPDF {
		generating, failed, run = msgGeneratingPDF, msgPDFFailed, p.exporter.PDF
	}
	p.view.Alert(generating)

	a, err := run(ctx, snap.Result)
	if err == nil {
		err = p.view.Save(ctx, a)
	}
	if err != nil {
		log.Error().Err(err).Str("format", string(f)).Msg("export failed")
		p.view.Alert(failed)
		return err
	}
	log.Info().Str("file", a.Name()).Int("bytes", a.Len()).Msg("export saved")
	return nil
}
