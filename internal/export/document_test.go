package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureDocument_EmptyResultElement(t *testing.T) {
	doc, err := captureDocument()
	require.NoError(t, err)

	assert.Contains(t, doc, `<div id="analysisResult"></div>`)
	assert.Contains(t, doc, `http-equiv="Content-Security-Policy"`)
	assert.Contains(t, doc, "script-src &#39;none&#39;")
}

func TestPagesDocument_OnePagePerOffset(t *testing.T) {
	l, err := Paginate(210, 594)
	require.NoError(t, err)

	doc, err := pagesDocument([]byte{0x89, 'P', 'N', 'G'}, l)
	require.NoError(t, err)

	assert.Equal(t, 3, strings.Count(doc, `<div class="page">`))
	assert.Contains(t, doc, `src="data:image/png;base64,iVBORw=="`)
	assert.Contains(t, doc, "top: 0.0000mm")
	assert.Contains(t, doc, "top: -297.0000mm")
	assert.Contains(t, doc, "top: -594.0000mm")
	assert.Contains(t, doc, "size: 210.0000mm 297.0000mm")
	assert.Contains(t, doc, "script-src &#39;none&#39;")
}
