package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
)

// Callback data.
const (
	cbTypePrefix   = "type:"
	cbAnalyze      = "analyze"
	cbChangeType   = "type"
	cbExportPrefix = "export:"
)

// makeProductTypeKeyboard lists every product type, two per row, marking the
// selected one.
func makeProductTypeKeyboard(selected glowscan.ProductType) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, pt := range glowscan.ProductTypes() {
		label := pt.Label()
		if pt == selected {
			label = fmt.Sprintf(BtnSelected, label)
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbTypePrefix+string(pt)))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func makeAnalyzeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnAnalyze, cbAnalyze),
			tgbotapi.NewInlineKeyboardButtonData(BtnChangeType, cbChangeType),
		),
	)
}

func makeDownloadKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnDownloadPDF, cbExportPrefix+string(export.FormatPDF)),
			tgbotapi.NewInlineKeyboardButtonData(BtnDownloadPNG, cbExportPrefix+string(export.FormatPNG)),
		),
	)
}

func parseTypeCallback(data string) (glowscan.ProductType, bool) {
	label, ok := strings.CutPrefix(data, cbTypePrefix)
	if !ok {
		return "", false
	}
	pt, err := glowscan.ParseProductType(label)
	return pt, err == nil
}

func parseExportCallback(data string) (export.Format, bool) {
	f, ok := strings.CutPrefix(data, cbExportPrefix)
	if !ok {
		return "", false
	}
	return export.ParseFormat(f)
}
