package export

import "time"

// rendererConfig holds internal configuration for a Renderer.
type rendererConfig struct {
	chromePath    string
	timeout       time.Duration
	noSandbox     bool
	autoDownload  bool
	headless      string
	scale         float64
	viewportWidth int64
}

func defaultConfig() rendererConfig {
	return rendererConfig{
		timeout:       60 * time.Second,
		headless:      "new",
		scale:         2,
		viewportWidth: 800,
	}
}

// Option configures a [Renderer].
type Option func(*rendererConfig)

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default chromedp searches standard locations.
func WithChromePath(path string) Option {
	return func(c *rendererConfig) {
		c.chromePath = path
	}
}

// WithTimeout sets the maximum duration of a single export.
// Defaults to 60 seconds. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *rendererConfig) {
		c.timeout = d
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *rendererConfig) {
		c.noSandbox = true
	}
}

// WithAutoDownload fetches a compatible Chromium build when no explicit
// path is given.
func WithAutoDownload() Option {
	return func(c *rendererConfig) {
		c.autoDownload = true
	}
}

// WithScale sets the rasterization oversampling factor. Defaults to 2.
func WithScale(scale float64) Option {
	return func(c *rendererConfig) {
		if scale > 0 {
			c.scale = scale
		}
	}
}

// WithViewportWidth sets the CSS pixel width the result is laid out in.
func WithViewportWidth(px int64) Option {
	return func(c *rendererConfig) {
		if px > 0 {
			c.viewportWidth = px
		}
	}
}
