// Package telegram wires the application core to the Telegram transport
// via telebot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/wallbot/internal/bot"
	"github.com/m3rciful/wallbot/internal/config"
	"github.com/m3rciful/wallbot/internal/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Run builds the bot, wires middleware and routes, and polls for updates
// until the context is cancelled. The application is constructed through
// the factory because it needs the outbox, which needs the bot instance.
func Run(ctx context.Context, cfg *config.Config, build func(bot.Outbox) *bot.App) error {
	if cfg == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
	if timeoutSec <= 0 {
		timeoutSec = 10
	}

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: &tele.LongPoller{Timeout: time.Duration(timeoutSec) * time.Second},
		Client: buildHTTPClient(),
	}

	b, err := tele.NewBot(settings)
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}

	out := NewOutbox(b)
	defer out.Close()

	app := build(out)

	b.Use(recoverMiddleware)
	if cfg.RateLimit.IntervalMS > 0 {
		b.Use(rateLimitMiddleware(cfg.RateLimit))
	}
	b.Use(loggingMiddleware)

	b.Handle(tele.OnText, onText(app))
	b.Handle(tele.OnPhoto, onPhoto(app))
	b.Handle(tele.OnCallback, onCallback(app))

	logger.Info(ctx, "tg", "mode",
		slog.String("mode", "polling"),
		slog.Int("timeout_seconds", timeoutSec),
	)

	runDone := make(chan struct{})
	go func() {
		b.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		b.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

const (
	dialTimeout     = 5 * time.Second
	tlsHandshake    = 5 * time.Second
	idleConnTimeout = 30 * time.Second
	clientTimeout   = 65 * time.Second // must exceed the long poll timeout
)

// buildHTTPClient returns an HTTP client tuned for long polling against the
// Telegram API.
func buildHTTPClient() *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: dialTimeout, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 8,
		IdleConnTimeout:     idleConnTimeout,
		TLSHandshakeTimeout: tlsHandshake,
	}
	return &http.Client{
		Timeout:   clientTimeout,
		Transport: transport,
	}
}
