package export

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chromeAvailable reports whether a Chrome/Chromium executable is in PATH.
func chromeAvailable() bool {
	for _, name := range []string{
		"chromium-browser", "chromium", "google-chrome",
		"google-chrome-stable", "chrome",
	} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	if !chromeAvailable() {
		t.Skip("skipping: Chrome/Chromium not found in PATH")
	}
	r, err := NewRenderer(WithNoSandbox())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRenderer_PNGIsScaled(t *testing.T) {
	r := newTestRenderer(t)

	a, err := r.PNG(context.Background(), `<p style="margin:0;height:100px">Safe</p>`)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, a.Format)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(a.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	// 800 CSS px wide viewport at 2x.
	assert.Equal(t, 1600, cfg.Width)
}

func TestRenderer_PDF(t *testing.T) {
	r := newTestRenderer(t)

	a, err := r.PDF(context.Background(), `<h1>Analysis</h1><ul><li>Aqua: hydrates</li></ul>`)
	require.NoError(t, err)
	assert.Equal(t, FilenamePDF, a.Name())
	assert.True(t, bytes.HasPrefix(a.Bytes(), []byte("%PDF-")), "output is not a PDF")
}

func TestRenderer_CloseIdempotent(t *testing.T) {
	r := newTestRenderer(t)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
}

func TestRenderer_UsedAfterClose(t *testing.T) {
	r := newTestRenderer(t)
	r.Close()

	_, err := r.PNG(context.Background(), "<p>x</p>")
	var exportErr *Error
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, FormatPNG, exportErr.Format)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestRenderer_FragmentScriptsDoNotRun(t *testing.T) {
	r := newTestRenderer(t)

	const paintRed = `document.body.style.background='rgb(255,0,0)'`
	fragment := `<p>Safe</p>` +
		`<script>` + paintRed + `</script>` +
		`<img src="data:," onerror="` + paintRed + `">`

	a, err := r.PNG(context.Background(), fragment)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(a.Bytes()))
	require.NoError(t, err)
	// Inside the result padding only the page background shows.
	cr, cg, cb, _ := img.At(4, 4).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{cr, cg, cb})
}
