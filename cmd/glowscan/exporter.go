package main

import (
	"context"
	"sync"

	"github.com/raine/glowscan-bot/internal/export"
)

// lazyRenderer starts the export browser on the first export so commands
// that never export do not need Chrome.
type lazyRenderer struct {
	opts []export.Option

	once sync.Once
	r    *export.Renderer
	err  error
}

func newLazyRenderer(opts ...export.Option) *lazyRenderer {
	return &lazyRenderer{opts: opts}
}

func (l *lazyRenderer) renderer() (*export.Renderer, error) {
	l.once.Do(func() {
		l.r, l.err = export.NewRenderer(l.opts...)
	})
	return l.r, l.err
}

func (l *lazyRenderer) PNG(ctx context.Context, fragment string) (*export.Artifact, error) {
	r, err := l.renderer()
	if err != nil {
		return nil, &export.Error{Format: export.FormatPNG, Err: err}
	}
	return r.PNG(ctx, fragment)
}

func (l *lazyRenderer) PDF(ctx context.Context, fragment string) (*export.Artifact, error) {
	r, err := l.renderer()
	if err != nil {
		return nil, &export.Error{Format: export.FormatPDF, Err: err}
	}
	return r.PDF(ctx, fragment)
}

// Close stops the browser if it was started.
func (l *lazyRenderer) Close() error {
	// Marks the renderer as never started if no export ran.
	l.once.Do(func() {})
	if l.r == nil {
		return nil
	}
	return l.r.Close()
}
