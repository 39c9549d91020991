package export

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifact_Accessors(t *testing.T) {
	data := []byte("%PDF-1.4 test")
	a := NewArtifact(FormatPDF, data)

	assert.Equal(t, FilenamePDF, a.Name())
	assert.Equal(t, "application/pdf", a.ContentType())
	assert.Equal(t, data, a.Bytes())
	assert.Equal(t, len(data), a.Len())
	assert.Equal(t, "JVBERi0xLjQgdGVzdA==", a.Base64())

	got, err := io.ReadAll(a.Reader())
	require.NoError(t, err)
	assert.Equal(t, data, got)

	var buf bytes.Buffer
	n, err := a.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)
	assert.Equal(t, data, buf.Bytes())
}

func TestArtifact_WriteToFile(t *testing.T) {
	a := NewArtifact(FormatPNG, []byte{0x89, 'P', 'N', 'G'})
	path := filepath.Join(t.TempDir(), a.Name())

	require.NoError(t, a.WriteToFile(path, 0o644))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, a.Bytes(), got)
	assert.Equal(t, "GlowScan_Analysis.png", filepath.Base(path))
}

func TestParseFormat(t *testing.T) {
	f, ok := ParseFormat(" PDF ")
	assert.True(t, ok)
	assert.Equal(t, FormatPDF, f)

	f, ok = ParseFormat("png")
	assert.True(t, ok)
	assert.Equal(t, "image/png", f.ContentType())

	_, ok = ParseFormat("gif")
	assert.False(t, ok)
}
