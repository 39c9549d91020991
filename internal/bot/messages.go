package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgUnexpectedErr = `Unexpected error: %s`
	MsgVersionInfo   = "Version: %s\nBuilt: %s"
	MsgReset         = "Ok! Started over. Send a photo of an ingredient label."
	MsgStart         = `
		Send me a photo of a cosmetic product's ingredient label and I will read the ingredients and analyze them.

		1. Pick the product type with /type (default: moisturizer)
		2. Send the label photo (as a photo or an image file)
		3. Fix the extracted text by sending it back to me, if needed
		4. Press *Analyze* or use /analyze
		5. Download the analysis as PDF or PNG`
)

// =============================================================================
// Label photo messages
// =============================================================================

const (
	MsgNotAnImage      = "That file is not an image. Send a photo of the ingredient label."
	MsgImageTooLarge   = "The image is too large. The limit is %d MB."
	MsgDownloadFailed  = "Could not download the image from Telegram. Please send it again."
	MsgIngredientsSet  = "Ingredients updated. Press *Analyze* when ready."
	MsgNoIngredients   = "No ingredients yet. Send a photo of the ingredient label, or type the ingredients."
	MsgIngredientsHint = "Send a message to replace the text."
)

// =============================================================================
// Product type messages
// =============================================================================

const (
	MsgSelectProductType  = "Select the product type:"
	MsgProductTypeSet     = "Product type: %s"
	MsgUnknownProductType = "Unknown product type."
)

// =============================================================================
// Status texts (HTML)
// =============================================================================

const (
	HeaderIngredients = "<b>Ingredients</b>"
	HeaderProductType = "<i>Product type: %s</i>"
	PrefixError       = "⚠️ "
)

// =============================================================================
// Buttons
// =============================================================================

const (
	BtnAnalyze     = "🔬 Analyze"
	BtnChangeType  = "🧴 Product type"
	BtnDownloadPDF = "📄 PDF"
	BtnDownloadPNG = "🖼 PNG"
	BtnSelected    = "✓ %s"
)
