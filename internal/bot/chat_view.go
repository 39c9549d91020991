package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/glowscan-bot/internal/export"
	"github.com/raine/glowscan-bot/internal/glowscan"
	"github.com/raine/glowscan-bot/internal/page"
	"github.com/raine/glowscan-bot/internal/ui"
)

var actions = []ui.Action{ui.ActionExtract, ui.ActionAnalyze}

// chatView draws a page into a Telegram chat.
//
// Each request gets a status message when it starts. The message is edited
// in place with the outcome when the request completes, so the chat reads
// as a log of requests, each with its result or error. Errors raised without
// a request (validation) are sent as new messages.
type chatView struct {
	chatID int64
	sender MessageSender
	typing func(ctx context.Context)

	mu          sync.Mutex
	fileName    string
	ingredients string
	productType glowscan.ProductType
	prev        ui.Snapshot
	statusMsgID map[ui.Action]int
	stopTyping  context.CancelFunc
}

var _ page.View = (*chatView)(nil)

func newChatView(chatID int64, sender MessageSender, typing func(ctx context.Context)) *chatView {
	return &chatView{
		chatID:      chatID,
		sender:      sender,
		typing:      typing,
		productType: glowscan.DefaultProductType,
		statusMsgID: make(map[ui.Action]int),
	}
}

func (v *chatView) ShowFileName(name string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.fileName = name
}

func (v *chatView) SetIngredients(text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ingredients = text
}

func (v *chatView) Ingredients() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ingredients
}

func (v *chatView) ProductType() glowscan.ProductType {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.productType
}

// SetProductType changes the product type selection.
func (v *chatView) SetProductType(pt glowscan.ProductType) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.productType = pt
}

func (v *chatView) Alert(message string) {
	msg := tgbotapi.NewMessage(v.chatID, message)
	if _, err := v.sender.Send(msg); err != nil {
		log.Error().Err(err).Int64("chatId", v.chatID).Msg("failed to send alert")
	}
}

func (v *chatView) Save(ctx context.Context, a *export.Artifact) error {
	doc := tgbotapi.NewDocument(v.chatID, tgbotapi.FileBytes{
		Name:  a.Name(),
		Bytes: a.Bytes(),
	})
	if _, err := v.sender.Send(doc); err != nil {
		return fmt.Errorf("sending %s: %w", a.Name(), err)
	}
	return nil
}

func (v *chatView) Render(s ui.Snapshot) {
	v.mu.Lock()
	prev := v.prev
	v.prev = s
	fileName, ingredients, productType := v.fileName, v.ingredients, v.productType
	v.mu.Unlock()

	v.updateTyping(s.Loading)

	changed := false
	for _, a := range actions {
		switch {
		case !prev.Disabled(a) && s.Disabled(a):
			changed = true
			text := composeLoading(a, fileName, productType)
			sent := v.send(text, nil)
			v.mu.Lock()
			v.statusMsgID[a] = sent.MessageID
			v.mu.Unlock()
		case prev.Disabled(a) && !s.Disabled(a):
			changed = true
			v.mu.Lock()
			id := v.statusMsgID[a]
			delete(v.statusMsgID, a)
			v.mu.Unlock()
			text, markup := composeOutcome(a, s, fileName, ingredients)
			v.edit(id, text, markup)
		}
	}

	// A transition that touched no action is a rejected request.
	if !changed && s.ErrorShown {
		v.send(composeRejection(s), nil)
	}
}

func (v *chatView) updateTyping(loading bool) {
	if v.typing == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	switch {
	case loading && v.stopTyping == nil:
		ctx, cancel := context.WithCancel(context.Background())
		v.stopTyping = cancel
		go v.typing(ctx)
	case !loading && v.stopTyping != nil:
		v.stopTyping()
		v.stopTyping = nil
	}
}

func (v *chatView) send(text string, markup *tgbotapi.InlineKeyboardMarkup) tgbotapi.Message {
	msg := tgbotapi.NewMessage(v.chatID, fitMessage(text))
	msg.ParseMode = tgbotapi.ModeHTML
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := v.sender.Send(msg)
	if err != nil {
		log.Error().Err(err).Int64("chatId", v.chatID).Msg("failed to send status message")
	}
	return sent
}

// edit replaces a status message, or sends a new one when there is none.
func (v *chatView) edit(messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		v.send(text, markup)
		return
	}
	edit := tgbotapi.NewEditMessageText(v.chatID, messageID, fitMessage(text))
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	if _, err := v.sender.Request(edit); err != nil {
		log.Warn().Err(err).Int64("chatId", v.chatID).Int("messageId", messageID).Msg("failed to edit status message, sending new")
		v.send(text, markup)
	}
}

func composeLoading(a ui.Action, fileName string, pt glowscan.ProductType) string {
	var lines []string
	if a == ui.ActionExtract {
		if fileName != "" {
			lines = append(lines, "<i>"+escapeHTML(fileName)+"</i>")
		}
		lines = append(lines, escapeHTML(page.TextExtracting))
	} else {
		lines = append(lines, toTelegramHTML(ui.ResultInProgress))
	}
	lines = append(lines, fmt.Sprintf(HeaderProductType, escapeHTML(pt.Label())))
	return strings.Join(lines, "\n")
}

func composeOutcome(a ui.Action, s ui.Snapshot, fileName, ingredients string) (string, *tgbotapi.InlineKeyboardMarkup) {
	var parts []string
	if a == ui.ActionExtract && fileName != "" {
		parts = append(parts, "<i>"+escapeHTML(fileName)+"</i>")
	}

	if s.ErrorShown {
		parts = append(parts, PrefixError+escapeHTML(s.ErrorText))
	}

	var markup *tgbotapi.InlineKeyboardMarkup
	switch a {
	case ui.ActionExtract:
		if !s.ErrorShown {
			parts = append(parts, toTelegramHTML(s.Result))
		}
		if !s.ErrorShown || s.Warning {
			parts = append(parts, ingredientsBlock(ingredients))
			kb := makeAnalyzeKeyboard()
			markup = &kb
		}
	case ui.ActionAnalyze:
		parts = append(parts, toTelegramHTML(s.Result))
		if s.DownloadsShown {
			kb := makeDownloadKeyboard()
			markup = &kb
		}
	}
	return strings.Join(nonEmpty(parts), "\n\n"), markup
}

func composeRejection(s ui.Snapshot) string {
	return PrefixError + escapeHTML(s.ErrorText)
}

// ingredientsBlock shows the editable text. It is cut to leave room for the
// rest of the message.
func ingredientsBlock(text string) string {
	return HeaderIngredients + "\n<pre>" + escapeHTML(truncateText(text, maxMessageLen/2)) + "</pre>\n" + MsgIngredientsHint
}

func nonEmpty(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
