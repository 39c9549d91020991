package page

import (
	"context"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
	"github.com/raine/glowscan-bot/internal/ui"
)

// View is everything the page draws on or reads from. One View is bound to
// one Page for its whole life.
type View interface {
	// ShowFileName sets the file name display. An empty name clears it.
	ShowFileName(name string)
	// SetIngredients replaces the editable ingredients text.
	SetIngredients(text string)
	// Ingredients returns the ingredients text as the user last left it.
	Ingredients() string
	// ProductType returns the current product type selection.
	ProductType() glowscan.ProductType
	// Render draws a UI snapshot.
	Render(s ui.Snapshot)
	// Alert shows a blocking notification.
	Alert(message string)
	// Save hands an exported file to the user.
	Save(ctx context.Context, a *export.Artifact) error
}

// Backend runs OCR and analysis. *glowscan.Client implements it.
type Backend interface {
	ExtractIngredients(ctx context.Context, img glowscan.Image, productType glowscan.ProductType) (*glowscan.Extraction, error)
	AnalyzeIngredients(ctx context.Context, ingredients string, productType glowscan.ProductType) (*glowscan.Analysis, error)
}

// Exporter turns a result fragment into a file. *export.Renderer implements
// it.
type Exporter interface {
	PNG(ctx context.Context, fragment string) (*export.Artifact, error)
	PDF(ctx context.Context, fragment string) (*export.Artifact, error)
}

var (
	_ Backend  = (*glowscan.Client)(nil)
	_ Exporter = (*export.Renderer)(nil)
)
