package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
)

// resultElementID is the id of the captured element, as on the web page.
const resultElementID = "analysisResult"

var captureTmpl = template.Must(template.New("capture").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="Content-Security-Policy" content="{{.Policy}}">
<style>
  html, body { margin: 0; padding: 0; background: #ffffff; }
  body { font-family: system-ui, -apple-system, "Segoe UI", sans-serif; color: #1f2933; }
  #{{.ID}} { padding: 24px; line-height: 1.5; }
  #{{.ID}} img { max-width: 100%; }
</style>
</head>
<body>
<div id="{{.ID}}"></div>
</body>
</html>`))

var pagesTmpl = template.Must(template.New("pages").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta http-equiv="Content-Security-Policy" content="{{.Policy}}">
<style>
  @page { size: {{.PageWidth}}mm {{.PageHeight}}mm; margin: 0; }
  html, body { margin: 0; padding: 0; }
  .page { position: relative; overflow: hidden; width: {{.PageWidth}}mm; height: {{.PageHeight}}mm; break-after: page; }
  .page:last-child { break-after: auto; }
  .page img { position: absolute; left: 0; width: {{.ImageWidth}}mm; height: {{.ImageHeight}}mm; }
</style>
</head>
<body>
{{- range .Offsets}}
<div class="page"><img src="{{$.Src}}" style="top: {{.}}mm" alt=""></div>
{{- end}}
</body>
</html>`))

// Export pages never run their own scripts. The fragment comes from the
// service and is inserted through the DevTools protocol, which the policy
// does not restrict.
const (
	capturePolicy = "default-src 'none'; script-src 'none'; style-src 'unsafe-inline'; img-src data: http: https:"
	pagesPolicy   = "default-src 'none'; script-src 'none'; style-src 'unsafe-inline'; img-src data:"
)

// captureDocument is the empty page the result fragment is inserted into as
// the inner HTML of the result element.
func captureDocument() (string, error) {
	var buf bytes.Buffer
	err := captureTmpl.Execute(&buf, struct {
		ID     string
		Policy string
	}{
		ID:     resultElementID,
		Policy: capturePolicy,
	})
	if err != nil {
		return "", fmt.Errorf("export: building capture document: %w", err)
	}
	return buf.String(), nil
}

// pagesDocument lays the PNG out on A4 sheets following l.
func pagesDocument(png []byte, l Layout) (string, error) {
	offsets := make([]string, len(l.Offsets))
	for i, o := range l.Offsets {
		offsets[i] = mm(o)
	}

	var buf bytes.Buffer
	err := pagesTmpl.Execute(&buf, struct {
		PageWidth   string
		PageHeight  string
		ImageWidth  string
		ImageHeight string
		Offsets     []string
		Src         template.URL
		Policy      string
	}{
		PageWidth:   mm(PageWidthMM),
		PageHeight:  mm(PageHeightMM),
		ImageWidth:  mm(l.ImageWidth),
		ImageHeight: mm(l.ImageHeight),
		Offsets:     offsets,
		Src:         template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)),
		Policy:      pagesPolicy,
	})
	if err != nil {
		return "", fmt.Errorf("export: building page document: %w", err)
	}
	return buf.String(), nil
}

func mm(v float64) string {
	return fmt.Sprintf("%.4f", v)
}
