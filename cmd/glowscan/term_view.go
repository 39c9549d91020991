package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/net/html"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
	"github.com/raine/glowscan-bot/internal/page"
	"github.com/raine/glowscan-bot/internal/ui"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	savedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// termView draws a page on a terminal. Exports are written to the paths
// given on the command line.
type termView struct {
	out io.Writer

	mu          sync.Mutex
	fileName    string
	ingredients string
	productType glowscan.ProductType
	paths       map[export.Format]string
}

var _ page.View = (*termView)(nil)

func newTermView(out io.Writer, productType glowscan.ProductType) *termView {
	return &termView{
		out:         out,
		productType: productType,
		paths:       make(map[export.Format]string),
	}
}

// SetPath sets where artifacts of format f are saved.
func (v *termView) SetPath(f export.Format, path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.paths[f] = path
}

func (v *termView) ShowFileName(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fileName = name
	if name != "" {
		fmt.Fprintln(v.out, statusStyle.Render(name))
	}
}

func (v *termView) SetIngredients(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ingredients = text
}

func (v *termView) Ingredients() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ingredients
}

func (v *termView) ProductType() glowscan.ProductType {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.productType
}

func (v *termView) Render(s ui.Snapshot) {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch s.State {
	case ui.Loading:
		if s.Action == ui.ActionExtract {
			fmt.Fprintln(v.out, statusStyle.Render(page.TextExtracting))
		} else {
			fmt.Fprintln(v.out, statusStyle.Render(plainText(s.Result)))
		}
	case ui.Success:
		if s.Action == ui.ActionExtract {
			v.printIngredients()
			return
		}
		fmt.Fprintln(v.out, titleStyle.Render("Analysis"))
		fmt.Fprintln(v.out, plainText(s.Result))
	case ui.Error:
		fmt.Fprintln(v.out, errorStyle.Render(s.ErrorText))
		if s.Warning {
			v.printIngredients()
		}
	}
}

// printIngredients must be called with mu held.
func (v *termView) printIngredients() {
	fmt.Fprintln(v.out, titleStyle.Render("Ingredients"))
	fmt.Fprintln(v.out, v.ingredients)
}

func (v *termView) Alert(message string) {
	fmt.Fprintln(v.out, noticeStyle.Render(message))
}

func (v *termView) Save(_ context.Context, a *export.Artifact) error {
	v.mu.Lock()
	path := v.paths[a.Format]
	v.mu.Unlock()
	if path == "" {
		path = a.Name()
	}

	if err := a.WriteToFile(path, 0644); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	fmt.Fprintln(v.out, savedStyle.Render("✓ Saved "+path))
	return nil
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "ul": true, "ol": true,
	"table": true, "tr": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "blockquote": true, "pre": true,
}

// plainText flattens an HTML fragment for the terminal.
func plainText(fragment string) string {
	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return tidyLines(sb.String())
		case html.TextToken:
			sb.WriteString(string(z.Text()))
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "br":
				sb.WriteString("\n")
			case tag == "li":
				sb.WriteString("\n- ")
			case tag == "td" || tag == "th":
				sb.WriteString("\t")
			case blockElements[tag]:
				sb.WriteString("\n")
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if blockElements[string(name)] {
				sb.WriteString("\n")
			}
		}
	}
}

func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
