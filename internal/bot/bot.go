package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/glowscan-bot/internal/page"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg         BotAPI
	state      BotState
	backend    page.Backend
	exporter   page.Exporter
	downloader *ImageDownloader
}

// NewBot creates a new Bot instance. Every chat gets its own page backed by
// the shared backend and exporter.
func NewBot(tg BotAPI, backend page.Backend, exporter page.Exporter) *Bot {
	bot := &Bot{
		tg:         tg,
		backend:    backend,
		exporter:   exporter,
		downloader: NewImageDownloader(),
	}
	bot.state = bot.NewBotState()
	return bot
}

// SetDownloader replaces the image downloader.
func (b *Bot) SetDownloader(d *ImageDownloader) {
	b.downloader = d
}

// Shutdown stops all sessions and waits for their background work.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

func (b *Bot) newPage(view page.View) *page.Page {
	return page.New(view, b.backend, b.exporter)
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	// Determine user ID from the update
	if update.CallbackQuery != nil {
		userId = update.CallbackQuery.From.ID
	} else if update.Message != nil && update.Message.From != nil {
		userId = update.Message.From.ID
	} else {
		return
	}

	session := b.state.getUserSession(userId)

	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{
			Type:          "callback",
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	message := update.Message
	log.Info().Int64("userId", userId).Str("text", message.Text).Bool("photo", len(message.Photo) > 0).Msg("got message")

	switch {
	case len(message.Photo) > 0:
		send(SessionMessage{Type: "photo", Ctx: ctx, Message: message})
	case message.Document != nil:
		send(SessionMessage{Type: "document", Ctx: ctx, Message: message})
	default:
		send(SessionMessage{Type: "text", Ctx: ctx, Message: message, Text: message.Text})
	}
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "photo":
		b.handlePhotoMessage(session, msg.Message)
	case "document":
		b.handleDocumentMessage(session, msg.Message)
	case "text":
		b.handleTextMessage(ctx, session, msg.Message)
	}
}

// handlePhotoMessage selects the largest size of a photo as the label image.
func (b *Bot) handlePhotoMessage(session *UserSession, message *tgbotapi.Message) {
	photo := message.Photo[len(message.Photo)-1]
	name := fmt.Sprintf("photo_%d.jpg", message.MessageID)
	b.selectTelegramFile(session, photo.FileID, name, int64(photo.FileSize))
}

// handleDocumentMessage accepts images sent as files, which keeps their
// original resolution.
func (b *Bot) handleDocumentMessage(session *UserSession, message *tgbotapi.Message) {
	doc := message.Document
	if doc.MimeType != "" && !strings.HasPrefix(doc.MimeType, "image/") {
		session.reply(MsgNotAnImage)
		return
	}
	name := doc.FileName
	if name == "" {
		name = fmt.Sprintf("document_%d", message.MessageID)
	}
	b.selectTelegramFile(session, doc.FileID, name, int64(doc.FileSize))
}

func (b *Bot) selectTelegramFile(session *UserSession, fileID, name string, size int64) {
	if size > b.downloader.MaxSize() {
		session.reply(MsgImageTooLarge, b.downloader.MaxSize()/(1024*1024))
		return
	}

	p := session.Page()
	session.runBackground("select image", func(ctx context.Context) {
		img, err := b.downloader.DownloadFromTelegramFileID(ctx, b.tg.GetFileDirectURL, fileID)
		if err != nil {
			log.Error().Err(err).Str("fileID", fileID).Msg("failed to download label photo")
			session.reply(MsgDownloadFailed)
			return
		}
		img.Name = name
		p.SelectImage(ctx, img)
	})
}

// handleTextMessage treats anything that is not a command as the new
// ingredients text.
func (b *Bot) handleTextMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	text := strings.TrimSpace(message.Text)
	if text == "" {
		return
	}
	if isCommand(text) {
		b.handleCommand(ctx, session, text)
		return
	}

	session.currentView().SetIngredients(text)
	msg := tgbotapi.NewMessage(session.userId, MsgIngredientsSet)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = makeAnalyzeKeyboard()
	session.replyWithMessage(msg)
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, text string) {
	command, _ := parseCommand(text)
	switch command {
	case "/start":
		session.reply(MsgStart)
	case "/type":
		b.sendProductTypeKeyboard(session)
	case "/analyze":
		b.startAnalysis(session)
	case "/text":
		b.sendIngredients(session)
	case "/reset":
		session.reset()
		session.reply(MsgReset)
	case "/version":
		session.reply(MsgVersionInfo, Version, BuildTime)
	default:
		session.reply(MsgStart)
	}
}

func (b *Bot) sendProductTypeKeyboard(session *UserSession) {
	msg := tgbotapi.NewMessage(session.userId, MsgSelectProductType)
	msg.ReplyMarkup = makeProductTypeKeyboard(session.currentView().ProductType())
	session.replyWithMessage(msg)
}

func (b *Bot) sendIngredients(session *UserSession) {
	text := session.currentView().Ingredients()
	if text == "" {
		session.reply(MsgNoIngredients)
		return
	}
	msg := tgbotapi.NewMessage(session.userId, fitMessage(ingredientsBlock(text)))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = makeAnalyzeKeyboard()
	session.replyWithMessage(msg)
}

func (b *Bot) startAnalysis(session *UserSession) {
	p := session.Page()
	session.runBackground("analyze", func(ctx context.Context) {
		var verr *page.ValidationError
		if err := p.Analyze(ctx); err != nil && !errors.As(err, &verr) {
			log.Debug().Err(err).Int64("userId", session.userId).Msg("analysis not started")
		}
	})
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	b.tg.Request(callback)

	switch {
	case query.Data == cbAnalyze:
		b.startAnalysis(session)
	case query.Data == cbChangeType:
		b.sendProductTypeKeyboard(session)
	case strings.HasPrefix(query.Data, cbTypePrefix):
		b.handleProductTypeSelection(session, query)
	case strings.HasPrefix(query.Data, cbExportPrefix):
		b.handleExport(session, query)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown callback")
	}
}

func (b *Bot) handleProductTypeSelection(session *UserSession, query *tgbotapi.CallbackQuery) {
	pt, ok := parseTypeCallback(query.Data)
	if !ok {
		session.reply(MsgUnknownProductType)
		return
	}
	session.currentView().SetProductType(pt)

	if query.Message != nil {
		edit := tgbotapi.NewEditMessageTextAndMarkup(
			query.Message.Chat.ID,
			query.Message.MessageID,
			formatReplyText(MsgProductTypeSet, pt.Label()),
			makeProductTypeKeyboard(pt),
		)
		b.tg.Request(edit)
	} else {
		session.reply(MsgProductTypeSet, pt.Label())
	}
}

func (b *Bot) handleExport(session *UserSession, query *tgbotapi.CallbackQuery) {
	format, ok := parseExportCallback(query.Data)
	if !ok {
		log.Warn().Str("data", query.Data).Msg("unknown export format")
		return
	}
	p := session.Page()
	session.runBackground("export "+string(format), func(ctx context.Context) {
		p.Download(ctx, format)
	})
}
