package telegram

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/m3rciful/wallbot/internal/bot"
	"github.com/m3rciful/wallbot/internal/logger"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// ErrQueueClosed is returned when a send is attempted after shutdown.
var ErrQueueClosed = errors.New("telegram outbox: queue closed")

// Outbox delivers outbound messages over telebot. Texts go out synchronously
// so prompts keep their order relative to the conversation; photos are
// queued to a background worker because a gallery batch may be large and
// delivery is best effort anyway.
type Outbox struct {
	b *tele.Bot

	jobs chan photoJob
	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

type photoJob struct {
	ctx    context.Context
	chatID int64
	fileID string
}

const (
	photoQueueSize  = 256
	photoRetries    = 2
	photoBackoff    = 2 * time.Second
	photoMaxElapsed = 12 * time.Second
)

// NewOutbox starts the photo delivery worker.
func NewOutbox(b *tele.Bot) *Outbox {
	o := &Outbox{
		b:    b,
		jobs: make(chan photoJob, photoQueueSize),
		stop: make(chan struct{}),
	}
	// One worker keeps a gallery batch in insertion order.
	o.wg.Add(1)
	go o.worker()
	return o
}

// Close stops the worker after draining queued photos.
func (o *Outbox) Close() {
	o.once.Do(func() {
		close(o.stop)
		close(o.jobs)
		o.wg.Wait()
	})
}

// SendText delivers a text message with an optional reply keyboard.
func (o *Outbox) SendText(ctx context.Context, chatID int64, text string, kb bot.Keyboard) error {
	var err error
	if markup := markupFor(kb); markup != nil {
		_, err = o.b.Send(tele.ChatID(chatID), text, markup)
	} else {
		_, err = o.b.Send(tele.ChatID(chatID), text)
	}
	if err != nil {
		logger.Error(ctx, "tg.send", "send.text.fail",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
	return err
}

// SendPhoto queues a photo for background delivery. Only queue saturation is
// reported to the caller; delivery failures are logged and dropped.
func (o *Outbox) SendPhoto(ctx context.Context, chatID int64, fileID string) error {
	select {
	case <-o.stop:
		return ErrQueueClosed
	default:
	}
	j := photoJob{ctx: ctx, chatID: chatID, fileID: fileID}
	select {
	case o.jobs <- j:
		return nil
	default:
		// Saturated queue: deliver inline rather than dropping silently.
		o.deliver(j)
		return nil
	}
}

// SendVisibilityChoice prompts with the publish target buttons.
func (o *Outbox) SendVisibilityChoice(ctx context.Context, chatID int64, fileID string) error {
	_, err := o.b.Send(tele.ChatID(chatID), "📂 Who should get this photo?", visibilityChoice(fileID))
	if err != nil {
		logger.Error(ctx, "tg.send", "send.choice.fail",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
	return err
}

func (o *Outbox) worker() {
	defer o.wg.Done()
	for j := range o.jobs {
		o.deliver(j)
	}
}

func (o *Outbox) deliver(j photoJob) {
	ctx := j.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	deadline := time.Now().Add(photoMaxElapsed)
	photo := &tele.Photo{File: tele.File{FileID: j.fileID}}

	var lastErr error
	for attempt := 1; attempt <= photoRetries+1; attempt++ {
		_, err := o.b.Send(tele.ChatID(j.chatID), photo)
		if err == nil {
			if attempt > 1 {
				logger.Debug(ctx, "tg.send", "send.photo.retry.success",
					slog.Int64("chat_id", j.chatID),
					slog.Int("attempt", attempt),
				)
			}
			return
		}
		lastErr = err
		if !shouldRetry(err) || time.Now().After(deadline) {
			break
		}
		select {
		case <-o.stop:
			return
		case <-time.After(photoBackoff * time.Duration(attempt)):
		}
	}

	// Best effort by contract: a dead file handle costs one photo, not
	// the batch.
	logger.Warn(ctx, "tg.send", "send.photo.skip",
		slog.Int64("chat_id", j.chatID),
		slog.String("err", lastErr.Error()),
	)
}

var _ bot.Outbox = (*Outbox)(nil)
