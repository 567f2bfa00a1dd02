package telegram

import (
	"runtime/debug"
	"sync"
	"time"

	"github.com/m3rciful/wallbot/internal/config"
	"github.com/m3rciful/wallbot/internal/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// recoverMiddleware catches panics in handlers and keeps the bot alive.
func recoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(buildContext(c), "tg", "tg.panic",
					slog.Any("err", r),
					slog.String("stack", string(debug.Stack())),
				)
			}
		}()
		return next(c)
	}
}

// loggingMiddleware logs one receipt line per update at debug level.
func loggingMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := buildContext(c)
		attrs := []slog.Attr{
			slog.String("status", "ok"),
		}
		if user := c.Sender(); user != nil && user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		switch {
		case c.Callback() != nil:
			key, _ := parseCallback(c.Callback())
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 64)))
		case c.Message() != nil && c.Message().Photo != nil:
			attrs = append(attrs, slog.String("payload", "photo"))
		default:
			if t := c.Text(); t != "" {
				attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 64)))
			}
		}
		logger.Debug(ctx, "tg", "update.received", attrs...)
		return next(c)
	}
}

// rateLimitMiddleware enforces a minimum interval between updates from the
// same user. Excluded update kinds pass through untouched.
func rateLimitMiddleware(cfg config.RateLimitConfig) tele.MiddlewareFunc {
	interval := time.Duration(cfg.IntervalMS) * time.Millisecond
	exclude := make(map[string]struct{}, len(cfg.ExcludeUpdates))
	for _, kind := range cfg.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}

	var (
		lastSeen   = make(map[int64]time.Time)
		lastSeenMu sync.Mutex
	)
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || interval <= 0 {
				return next(c)
			}

			kind := config.UpdateMessage
			if c.Callback() != nil {
				kind = config.UpdateCallback
			}
			if _, skip := exclude[kind]; skip {
				return next(c)
			}

			now := time.Now()
			lastSeenMu.Lock()
			if last, ok := lastSeen[user.ID]; ok && now.Sub(last) < interval {
				lastSeenMu.Unlock()
				logger.Warn(buildContext(c), "tg", "tg.rate_limit",
					slog.Int64("user_id", user.ID),
				)
				return nil
			}
			lastSeen[user.ID] = now
			lastSeenMu.Unlock()
			return next(c)
		}
	}
}
