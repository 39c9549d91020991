// Package export turns a rendered analysis result into a downloadable PNG or
// multi-page PDF using headless Chrome.
package export

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // PNG decoder for DecodeConfig
	"os"
	"path/filepath"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"
)

// waitImagesJS resolves once every image in the document has loaded or
// failed, so remote images in the result are part of the capture.
const waitImagesJS = `Promise.all(Array.from(document.images)
	.filter(img => !img.complete)
	.map(img => new Promise(resolve => { img.onload = img.onerror = resolve; })))
	.then(() => true)`

// Renderer rasterizes analysis results and assembles them into files.
//
// A Renderer keeps one headless browser running and opens a tab per export.
// It is safe for concurrent use. Call [Renderer.Close] to stop the browser.
type Renderer struct {
	cfg           rendererConfig
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewRenderer starts a headless browser configured by opts.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.chromePath == "" && cfg.autoDownload {
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("headless", cfg.headless),
	)
	if cfg.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.chromePath))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("export: starting browser: %w", err)
	}
	log.Info().Str("chromePath", cfg.chromePath).Float64("scale", cfg.scale).Msg("export browser started")

	return &Renderer{
		cfg:           cfg,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close stops the browser. Close is idempotent.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	r.browserCancel()
	r.allocCancel()
	return nil
}

// Rasterize renders fragment as the result element and returns a PNG of it
// at the configured scale.
func (r *Renderer) Rasterize(ctx context.Context, fragment string) ([]byte, error) {
	if err := r.checkClosed(); err != nil {
		return nil, err
	}

	doc, err := captureDocument()
	if err != nil {
		return nil, err
	}

	var buf []byte
	err = r.inTab(ctx, doc, func(tabCtx context.Context) error {
		var loaded bool
		return chromedp.Run(tabCtx,
			chromedp.EmulateViewport(r.cfg.viewportWidth, 600),
			chromedp.WaitReady("#"+resultElementID, chromedp.ByQuery),
			// Set like innerHTML on the web page: scripts in the fragment never run.
			chromedp.SetJavascriptAttribute("#"+resultElementID, "innerHTML", fragment, chromedp.ByQuery),
			chromedp.Evaluate(waitImagesJS, &loaded, func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
			chromedp.ScreenshotScale("#"+resultElementID, r.cfg.scale, &buf, chromedp.ByQuery),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("export: rasterizing result: %w", err)
	}
	return buf, nil
}

// PNG exports fragment as a single PNG image.
func (r *Renderer) PNG(ctx context.Context, fragment string) (*Artifact, error) {
	png, err := r.Rasterize(ctx, fragment)
	if err != nil {
		return nil, &Error{Format: FormatPNG, Err: err}
	}
	log.Info().Int("bytes", len(png)).Msg("exported png")
	return NewArtifact(FormatPNG, png), nil
}

// PDF exports fragment as one or more A4 pages tiling the rasterized result.
func (r *Renderer) PDF(ctx context.Context, fragment string) (*Artifact, error) {
	png, err := r.Rasterize(ctx, fragment)
	if err != nil {
		return nil, &Error{Format: FormatPDF, Err: err}
	}

	pdf, pages, err := r.assemblePDF(ctx, png)
	if err != nil {
		return nil, &Error{Format: FormatPDF, Err: err}
	}
	log.Info().Int("bytes", len(pdf)).Int("pages", pages).Msg("exported pdf")
	return NewArtifact(FormatPDF, pdf), nil
}

func (r *Renderer) assemblePDF(ctx context.Context, png []byte) ([]byte, int, error) {
	if err := r.checkClosed(); err != nil {
		return nil, 0, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return nil, 0, fmt.Errorf("export: reading raster size: %w", err)
	}
	layout, err := Paginate(cfg.Width, cfg.Height)
	if err != nil {
		return nil, 0, err
	}
	doc, err := pagesDocument(png, layout)
	if err != nil {
		return nil, 0, err
	}

	var buf []byte
	err = r.inTab(ctx, doc, func(tabCtx context.Context) error {
		return chromedp.Run(tabCtx,
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.ActionFunc(func(ctx context.Context) error {
				var err error
				buf, _, err = page.PrintToPDF().
					WithPaperWidth(mmToInches(PageWidthMM)).
					WithPaperHeight(mmToInches(PageHeightMM)).
					WithMarginTop(0).
					WithMarginRight(0).
					WithMarginBottom(0).
					WithMarginLeft(0).
					WithPrintBackground(true).
					WithPreferCSSPageSize(true).
					Do(ctx)
				return err
			}),
		)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("export: printing pdf: %w", err)
	}
	return buf, layout.Pages(), nil
}

// inTab writes doc to a temporary file, opens it in a new tab and runs fn
// there.
func (r *Renderer) inTab(ctx context.Context, doc string, fn func(tabCtx context.Context) error) error {
	f, err := os.CreateTemp("", "glowscan-*.html")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	name := f.Name()
	defer os.Remove(name)

	if _, err := f.WriteString(doc); err != nil {
		f.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}

	if r.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	// Tie the tab to the caller's context as well as the browser's.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	if err := chromedp.Run(tabCtx, chromedp.Navigate("file://"+abs)); err != nil {
		return err
	}
	if err := fn(tabCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (r *Renderer) checkClosed() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

func mmToInches(v float64) float64 {
	return v / 25.4
}
