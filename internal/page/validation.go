package page

import "strings"

// ValidationError is returned by Analyze when there is no usable ingredients
// text. No request is made.
type ValidationError struct {
	Text string
}

func (e *ValidationError) Error() string {
	return msgNeedText
}

// validateIngredients returns the trimmed text, or a *ValidationError when it
// is empty or still one of the extraction sentinels.
func validateIngredients(text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "",
		text == TextNoneExtracted,
		text == TextExtracting,
		strings.HasPrefix(text, extractFailedPrefix):
		return "", &ValidationError{Text: text}
	}
	return text, nil
}
