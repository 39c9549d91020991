package bot

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/page"
	"github.com/raine/glowscan-bot/internal/ui"
)

func newTestView(tg *botApiMock) *chatView {
	return newChatView(5, tg, nil)
}

func TestChatView_StatusMessageEditedOnCompletion(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.AnythingOfType("tgbotapi.MessageConfig")).Return(tgbotapi.Message{MessageID: 77}, nil).Once()
	tg.On("Request", mock.AnythingOfType("tgbotapi.EditMessageTextConfig")).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

	v := newTestView(tg)
	c := ui.NewController(v.Render)
	v.SetIngredients("Water")

	require.NoError(t, c.Begin(ui.ActionAnalyze))
	msgs := tg.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Analysis in progress...\n<i>Product type: Moisturizer</i>", msgs[0].Text)
	assert.Equal(t, tgbotapi.ModeHTML, msgs[0].ParseMode)

	c.Succeed(ui.ActionAnalyze, "<p>Safe</p>")
	edits := tg.edits()
	require.Len(t, edits, 1)
	assert.Equal(t, 77, edits[0].MessageID)
	assert.Equal(t, int64(5), edits[0].ChatID)
	assert.Equal(t, "Safe", edits[0].Text)
	require.NotNil(t, edits[0].ReplyMarkup)
	assert.Equal(t, makeDownloadKeyboard(), *edits[0].ReplyMarkup)
	tg.AssertExpectations(t)
}

func TestChatView_FailedEditFallsBackToSend(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 3}, nil)
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{}, errors.New("message is not modified"))

	v := newTestView(tg)
	c := ui.NewController(v.Render)
	require.NoError(t, c.Begin(ui.ActionAnalyze))
	c.Fail(ui.ActionAnalyze, "Failed to analyze ingredients: Service unavailable")

	msgs := tg.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "⚠️ Error: Failed to analyze ingredients: Service unavailable\n\nAnalysis failed. Please try again.", msgs[1].Text)
	assert.Nil(t, msgs[1].ReplyMarkup, "no download buttons after a failure")
}

func TestChatView_ExtractOutcome(t *testing.T) {
	tests := []struct {
		name       string
		finish     func(c *ui.Controller)
		text       string
		wantText   string
		wantMarkup bool
	}{
		{
			name:       "success",
			finish:     func(c *ui.Controller) { c.Succeed(ui.ActionExtract, ui.ResultExtracted) },
			text:       "Aqua, Glycerin",
			wantText:   "<i>Selected: label.jpg</i>\n\nIngredients extracted. Review them and run the analysis.\n\n<b>Ingredients</b>\n<pre>Aqua, Glycerin</pre>\n" + MsgIngredientsHint,
			wantMarkup: true,
		},
		{
			name:       "warning",
			finish:     func(c *ui.Controller) { c.Warn(ui.ActionExtract, "Low confidence OCR") },
			text:       "Low confidence OCR",
			wantText:   "<i>Selected: label.jpg</i>\n\n⚠️ Error: Low confidence OCR\n\n<b>Ingredients</b>\n<pre>Low confidence OCR</pre>\n" + MsgIngredientsHint,
			wantMarkup: true,
		},
		{
			name:     "failure",
			finish:   func(c *ui.Controller) { c.Fail(ui.ActionExtract, "Failed to extract ingredients: boom") },
			text:     page.TextExtractFailed,
			wantText: "<i>Selected: label.jpg</i>\n\n⚠️ Error: Failed to extract ingredients: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tg := new(botApiMock)
			tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 11}, nil)
			tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

			v := newTestView(tg)
			c := ui.NewController(v.Render)
			v.ShowFileName("Selected: label.jpg")
			require.NoError(t, c.Begin(ui.ActionExtract))
			assert.Equal(t, "<i>Selected: label.jpg</i>\nExtracting text...\n<i>Product type: Moisturizer</i>", tg.messages()[0].Text)

			v.SetIngredients(tt.text)
			tt.finish(c)

			edits := tg.edits()
			require.Len(t, edits, 1)
			assert.Equal(t, tt.wantText, edits[0].Text)
			if tt.wantMarkup {
				require.NotNil(t, edits[0].ReplyMarkup)
				assert.Equal(t, makeAnalyzeKeyboard(), *edits[0].ReplyMarkup)
			} else {
				assert.Nil(t, edits[0].ReplyMarkup)
			}
		})
	}
}

func TestChatView_RejectionSendsNewMessage(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)

	v := newTestView(tg)
	c := ui.NewController(v.Render)
	c.Reject("Please upload an image and ensure ingredients are extracted before analyzing.")

	msgs := tg.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "⚠️ Error: Please upload an image and ensure ingredients are extracted before analyzing.", msgs[0].Text)
	assert.Empty(t, tg.edits())
}

func TestChatView_SaveSendsDocument(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.AnythingOfType("tgbotapi.DocumentConfig")).Return(tgbotapi.Message{}, nil).Once()

	v := newTestView(tg)
	a := export.NewArtifact(export.FormatPNG, []byte("png"))
	require.NoError(t, v.Save(context.Background(), a))

	docs := tg.documents()
	require.Len(t, docs, 1)
	assert.Equal(t, int64(5), docs[0].ChatID)
	assert.Equal(t, tgbotapi.FileBytes{Name: "GlowScan_Analysis.png", Bytes: []byte("png")}, docs[0].File)
}

func TestChatView_SaveError(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("Request Entity Too Large"))

	v := newTestView(tg)
	err := v.Save(context.Background(), export.NewArtifact(export.FormatPDF, []byte("%PDF-")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GlowScan_Analysis.pdf")
}

func TestChatView_TypingWhileLoading(t *testing.T) {
	tg := new(botApiMock)
	tg.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 1}, nil)
	tg.On("Request", mock.Anything).Return(&tgbotapi.APIResponse{Ok: true}, nil)

	started := make(chan context.Context, 1)
	v := newChatView(5, tg, func(ctx context.Context) { started <- ctx })
	c := ui.NewController(v.Render)

	require.NoError(t, c.Begin(ui.ActionAnalyze))
	ctx := <-started
	assert.NoError(t, ctx.Err())

	c.Succeed(ui.ActionAnalyze, "<p>ok</p>")
	<-ctx.Done()
}
