// Package telegram connects the bot engine to the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/i474232898/route-weather-bot/internal/bot"
)

// BotAPI is the subset of *tgbotapi.BotAPI the adapter uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Submitter accepts translated events, usually a *bot.Dispatcher.
type Submitter interface {
	Submit(ev bot.Event) bool
}

// AdapterConfig holds settings for Adapter.
type AdapterConfig struct {
	API    BotAPI
	Logger zerolog.Logger

	// PollTimeout is the long-polling timeout in seconds (default: 60).
	PollTimeout int
}

// Adapter translates Telegram updates into bot events and delivers bot
// replies as Telegram messages.
type Adapter struct {
	api         BotAPI
	logger      zerolog.Logger
	pollTimeout int
}

// NewAdapter creates a new Adapter.
func NewAdapter(cfg AdapterConfig) *Adapter {
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 60
	}
	return &Adapter{
		api:         cfg.API,
		logger:      cfg.Logger,
		pollTimeout: timeout,
	}
}

// Send implements bot.Messenger.
func (a *Adapter) Send(ctx context.Context, chatID int64, reply bot.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.Chattable
	switch reply.Kind {
	case bot.ReplyImage:
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(reply.ImagePath))
		photo.Caption = reply.Text
		photo.ParseMode = tgbotapi.ModeMarkdownV2
		if markup := keyboardMarkup(reply.Keyboard); markup != nil {
			photo.ReplyMarkup = markup
		}
		msg = photo
	default:
		text := tgbotapi.NewMessage(chatID, reply.Text)
		text.ParseMode = tgbotapi.ModeMarkdownV2
		if markup := keyboardMarkup(reply.Keyboard); markup != nil {
			text.ReplyMarkup = markup
		}
		msg = text
	}

	if _, err := a.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send to chat %d: %w", chatID, err)
	}
	return nil
}

func keyboardMarkup(kb bot.Keyboard) interface{} {
	switch kb {
	case bot.KeyboardLocation:
		markup := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation("📍 Send location")),
		)
		markup.OneTimeKeyboard = true
		return markup
	case bot.KeyboardConfirm:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Yes", bot.ButtonYes)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("No", bot.ButtonNo)),
		)
	case bot.KeyboardDays:
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("1 day", "1")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("3 days", "3")),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("5 days", "5")),
		)
	case bot.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(false)
	default:
		return nil
	}
}

// Translate converts an update into a bot event. ok is false for updates the
// bot does not handle.
func Translate(update tgbotapi.Update) (ev bot.Event, ok bool) {
	if cb := update.CallbackQuery; cb != nil {
		if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
			return bot.Event{}, false
		}
		return bot.Event{
			Kind:   bot.EventButton,
			UserID: cb.From.ID,
			ChatID: cb.Message.Chat.ID,
			Text:   cb.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return bot.Event{}, false
	}

	ev = bot.Event{UserID: msg.From.ID, ChatID: msg.Chat.ID}
	switch {
	case msg.IsCommand():
		ev.Kind = bot.EventCommand
		ev.Text = msg.Command()
	case msg.Location != nil:
		ev.Kind = bot.EventLocation
		ev.Lat = msg.Location.Latitude
		ev.Lon = msg.Location.Longitude
	case msg.Text != "":
		ev.Kind = bot.EventText
		ev.Text = msg.Text
	default:
		return bot.Event{}, false
	}
	return ev, true
}

// HandleUpdate acknowledges callback queries and forwards the update to sink.
func (a *Adapter) HandleUpdate(update tgbotapi.Update, sink Submitter) {
	if cb := update.CallbackQuery; cb != nil {
		if _, err := a.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			a.logger.Warn().Err(err).Str("callback_id", cb.ID).Msg("callback not acknowledged")
		}
	}

	ev, ok := Translate(update)
	if !ok {
		a.logger.Debug().Int("update_id", update.UpdateID).Msg("update ignored")
		return
	}
	if !sink.Submit(ev) {
		a.logger.Warn().Int64("user_id", ev.UserID).Str("event", ev.Kind.String()).Msg("event not accepted")
	}
}

// Poll drops pending updates, then long-polls until ctx is done.
func (a *Adapter) Poll(ctx context.Context, sink Submitter) error {
	if _, err := a.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("telegram delete webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = a.pollTimeout
	updates := a.api.GetUpdatesChan(u)
	a.logger.Info().Msg("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			a.api.StopReceivingUpdates()
			a.logger.Info().Msg("telegram polling stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			a.HandleUpdate(update, sink)
		}
	}
}

// SetWebhook registers baseURL/secret with Telegram, dropping pending
// updates. The secret is never logged.
func (a *Adapter) SetWebhook(baseURL, secret string) error {
	if secret == "" {
		return errors.New("telegram webhook secret is empty")
	}
	hook, err := url.JoinPath(baseURL, secret)
	if err != nil {
		return fmt.Errorf("telegram webhook url: %w", err)
	}

	wh, err := tgbotapi.NewWebhook(hook)
	if err != nil {
		return fmt.Errorf("telegram webhook config: %w", err)
	}
	wh.DropPendingUpdates = true

	if _, err := a.api.Request(wh); err != nil {
		return fmt.Errorf("telegram set webhook: %w", err)
	}
	a.logger.Info().Str("url", baseURL).Msg("telegram webhook registered")
	return nil
}
