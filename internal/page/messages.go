package page

// Ingredients text sentinels. Analysis refuses to run on any of them.
const (
	TextExtracting    = "Extracting text..."
	TextNoneExtracted = "No text extracted."
	TextExtractFailed = "Failed to extract ingredients."

	extractFailedPrefix = "Failed to extract ingredients"
)

const (
	fileNameFormat = "Selected: %s"

	msgExtractFailed = "Failed to extract ingredients: %s"
	msgAnalyzeFailed = "Failed to analyze ingredients: %s"
	msgNeedText      = "Please upload an image and ensure ingredients are extracted before analyzing."

	msgExtractBusy = "Text extraction is already in progress."
	msgAnalyzeBusy = "Analysis is already in progress."
	msgNoResult    = "There is no analysis to download yet. Run an analysis first."

	msgGeneratingPDF = "Generating PDF... This may take a moment."
	msgGeneratingPNG = "Generating PNG image... This may take a moment."
	msgPDFFailed     = "Failed to generate PDF. Please try again."
	msgPNGFailed     = "Failed to generate PNG. Please try again."
)
