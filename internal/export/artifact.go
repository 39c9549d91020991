package export

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
	"strings"
)

// Format is an export file format.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatPNG Format = "png"
)

// File names of the exported artifacts.
const (
	FilenamePNG = "GlowScan_Analysis.png"
	FilenamePDF = "GlowScan_Analysis.pdf"
)

// ParseFormat accepts "pdf" or "png" in any case.
func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF:
		return FormatPDF, true
	case FormatPNG:
		return FormatPNG, true
	}
	return "", false
}

// Filename returns the download name for f.
func (f Format) Filename() string {
	if f == FormatPDF {
		return FilenamePDF
	}
	return FilenamePNG
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "image/png"
}

// Artifact is a finished export. Its content is never modified after
// creation.
type Artifact struct {
	Format Format
	data   []byte
}

// NewArtifact wraps data as an artifact of format f.
func NewArtifact(f Format, data []byte) *Artifact {
	return &Artifact{Format: f, data: data}
}

// Name returns the download file name.
func (a *Artifact) Name() string {
	return a.Format.Filename()
}

// ContentType returns the MIME type of the content.
func (a *Artifact) ContentType() string {
	return a.Format.ContentType()
}

// Bytes returns the raw content.
func (a *Artifact) Bytes() []byte {
	return a.data
}

// Len returns the size of the content in bytes.
func (a *Artifact) Len() int {
	return len(a.data)
}

// Base64 returns the content encoded as standard base64.
func (a *Artifact) Base64() string {
	return base64.StdEncoding.EncodeToString(a.data)
}

// Reader returns a reader over the content.
func (a *Artifact) Reader() *bytes.Reader {
	return bytes.NewReader(a.data)
}

// WriteTo writes the full content to w. It implements [io.WriterTo].
func (a *Artifact) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(a.data)
	return int64(n), err
}

// WriteToFile writes the content to path, creating it if needed.
func (a *Artifact) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, a.data, perm)
}
