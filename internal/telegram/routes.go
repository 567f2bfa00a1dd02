package telegram

import (
	"context"
	"strings"
	"time"

	"github.com/m3rciful/wallbot/internal/bot"
	"github.com/m3rciful/wallbot/internal/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

const contextKey = "logger_ctx"

// buildContext derives a context.Context carrying correlation metadata from
// the telebot context, caching it for reuse within the same update.
func buildContext(c tele.Context) context.Context {
	if v := c.Get(contextKey); v != nil {
		if ctx, ok := v.(context.Context); ok {
			return ctx
		}
	}

	var chatID, userID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	upd := c.Update()

	ctx := logger.WithRID(context.Background(), logger.BuildRID(upd.ID, chatID, userID))
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	c.Set(contextKey, ctx)
	return ctx
}

// parseCallback splits telebot's "\f<unique>|<data>" callback encoding.
func parseCallback(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, data, _ := strings.Cut(raw, "|")
	return strings.TrimSpace(key), data
}

// dispatch feeds one translated event into the application and logs a
// single summary line for the update.
func dispatch(c tele.Context, app *bot.App, handlerName string, ev bot.Event) error {
	start := time.Now()
	ctx := logger.WithHandler(buildContext(c), handlerName)

	err := app.HandleEvent(ctx, ev)

	status := "ok"
	attrs := []slog.Attr{
		slog.String("handler", handlerName),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		status = "fail"
		attrs = append(attrs, slog.String("err", logger.SanitizeLimit(err.Error(), 256)))
	}
	attrs = append([]slog.Attr{slog.String("status", status)}, attrs...)
	logger.Info(ctx, "tg", "handler.handled", attrs...)
	return err
}

func senderAndChat(c tele.Context) (int64, int64) {
	var userID, chatID int64
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	return userID, chatID
}

func onText(app *bot.App) tele.HandlerFunc {
	return func(c tele.Context) error {
		userID, chatID := senderAndChat(c)
		return dispatch(c, app, "text", bot.Event{
			UserID: userID,
			ChatID: chatID,
			Kind:   bot.KindText,
			Text:   c.Text(),
		})
	}
}

func onPhoto(app *bot.App) tele.HandlerFunc {
	return func(c tele.Context) error {
		msg := c.Message()
		if msg == nil || msg.Photo == nil {
			return nil
		}
		userID, chatID := senderAndChat(c)
		return dispatch(c, app, "photo", bot.Event{
			UserID:  userID,
			ChatID:  chatID,
			Kind:    bot.KindPhoto,
			PhotoID: msg.Photo.FileID,
		})
	}
}

func onCallback(app *bot.App) tele.HandlerFunc {
	return func(c tele.Context) error {
		cb := c.Callback()
		if cb == nil {
			return nil
		}
		// Ack the button press so the client stops its spinner.
		_ = c.Respond()

		key, data := parseCallback(cb)
		userID, chatID := senderAndChat(c)
		return dispatch(c, app, "callback", bot.Event{
			UserID:  userID,
			ChatID:  chatID,
			Kind:    bot.KindButton,
			Payload: bot.ButtonPayload(key, data),
		})
	}
}
