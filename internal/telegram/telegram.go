// Package telegram is the chat transport backed by the Telegram Bot API.
// The update cursor is owned by the caller: Receive takes the offset to
// poll from and returns the next one.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"finbot/internal/core"
	"finbot/internal/log"
)

const (
	defaultPollTimeout = 5 * time.Second
	defaultAudioMIME   = "audio/ogg"
	// Telegram bots can only download files up to 20MB.
	maxDownloadBytes = 20 << 20
)

// botAPI is the subset of *tgbotapi.BotAPI the transport uses.
type botAPI interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

var _ botAPI = (*tgbotapi.BotAPI)(nil)

// Transport receives messages from and sends replies to Telegram chats.
type Transport struct {
	api         botAPI
	http        *http.Client
	pollTimeout time.Duration
	logger      *log.Logger
}

// New connects to the Bot API with token.
func New(token string, pollTimeout time.Duration) (*Transport, error) {
	if token == "" {
		return nil, errors.New("telegram token is required")
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	slog.Info("Telegram bot authorized", "bot", api.Self.UserName)
	return newTransport(api, &http.Client{Timeout: time.Minute}, pollTimeout), nil
}

func newTransport(api botAPI, client *http.Client, pollTimeout time.Duration) *Transport {
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Transport{
		api:         api,
		http:        client,
		pollTimeout: pollTimeout,
		logger:      log.FromContext(context.Background()).WithComponent(log.ComponentTelegram),
	}
}

// SkipPending drains updates queued while the bot was offline and returns
// the cursor that follows the newest of them.
func (t *Transport) SkipPending(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	updates, err := t.api.GetUpdates(tgbotapi.UpdateConfig{Offset: -1, Limit: 1, Timeout: 1})
	if err != nil {
		return 0, fmt.Errorf("get pending updates: %w", err)
	}
	if len(updates) == 0 {
		return 0, nil
	}
	next := updates[len(updates)-1].UpdateID + 1
	// Confirm the offset so Telegram forgets everything older.
	if _, err := t.api.GetUpdates(tgbotapi.UpdateConfig{Offset: next, Limit: 1, Timeout: 0}); err != nil {
		return 0, fmt.Errorf("confirm update offset: %w", err)
	}
	t.logger.InfoContext(ctx, "Skipped pending updates", log.FieldCursor, next)
	return next, nil
}

// Receive polls for the first update at or after cursor. It returns a nil
// message when nothing arrived or the update carries nothing the bot
// handles; in both cases the returned cursor must be used on the next call.
func (t *Transport) Receive(ctx context.Context, cursor int) (*core.InboundMessage, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, cursor, err
	}
	updates, err := t.api.GetUpdates(tgbotapi.UpdateConfig{
		Offset:  cursor,
		Limit:   1,
		Timeout: int(t.pollTimeout / time.Second),
	})
	if err != nil {
		return nil, cursor, fmt.Errorf("get updates: %w", err)
	}
	if len(updates) == 0 {
		return nil, cursor, nil
	}

	u := updates[0]
	next := u.UpdateID + 1
	msg := t.convert(ctx, u)
	if msg == nil {
		t.logger.DebugContext(ctx, "Ignoring update", "update_id", u.UpdateID)
	}
	return msg, next, nil
}

func (t *Transport) convert(ctx context.Context, u tgbotapi.Update) *core.InboundMessage {
	if cb := u.CallbackQuery; cb != nil {
		// Stop the client's loading spinner; failures only affect the UI.
		if _, err := t.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			t.logger.WarnContext(ctx, "Failed to answer callback", log.FieldError, err)
		}
		if cb.Message == nil || cb.Message.Chat == nil || cb.Data == "" {
			return nil
		}
		return &core.InboundMessage{
			ChatID:   cb.Message.Chat.ID,
			UserName: firstName(cb.From),
			Kind:     core.TextMessage,
			Text:     cb.Data,
		}
	}

	m := u.Message
	if m == nil || m.Chat == nil {
		return nil
	}
	in := &core.InboundMessage{ChatID: m.Chat.ID, UserName: firstName(m.From)}
	switch {
	case m.Text != "":
		in.Kind, in.Text = core.TextMessage, m.Text
	case m.Voice != nil:
		in.Kind, in.AudioRef, in.AudioMIME = core.AudioMessage, m.Voice.FileID, m.Voice.MimeType
	case m.Audio != nil:
		in.Kind, in.AudioRef, in.AudioMIME = core.AudioMessage, m.Audio.FileID, m.Audio.MimeType
	default:
		return nil
	}
	return in
}

func firstName(u *tgbotapi.User) string {
	if u == nil {
		return ""
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}

// Send delivers text to chatID, with an inline button when opts has one.
func (t *Transport) Send(ctx context.Context, chatID int64, text string, opts core.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if b := opts.Button; b != nil {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data)),
		)
	}
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	t.logger.DebugContext(ctx, "Message sent", log.FieldChatID, chatID)
	return nil
}

// Download fetches the file behind audioRef and returns its bytes and
// media type. Telegram serves files as octet-stream, so a generic type is
// reported as audio/ogg, the format of voice notes.
func (t *Transport) Download(ctx context.Context, audioRef string) ([]byte, string, error) {
	url, err := t.api.GetFileDirectURL(audioRef)
	if err != nil {
		return nil, "", fmt.Errorf("resolve file url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := t.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download file: unexpected status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return nil, "", fmt.Errorf("file exceeds %d bytes", maxDownloadBytes)
	}
	return data, mediaType(resp.Header.Get("Content-Type")), nil
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil || mt == "" || mt == "application/octet-stream" {
		return defaultAudioMIME
	}
	return mt
}
