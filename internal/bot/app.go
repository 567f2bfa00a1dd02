// Package bot implements the conversational core: the command router and
// the multi-step admin flows, independent of any chat transport.
package bot

import (
	"context"
	"time"

	"github.com/m3rciful/wallbot/internal/access"
	"github.com/m3rciful/wallbot/internal/logger"
	"github.com/m3rciful/wallbot/internal/session"
	"github.com/m3rciful/wallbot/internal/storage"
	"log/slog"
)

// command maps a menu label to its action.
type command struct {
	requiresOperator bool
	action           func(ctx context.Context, ev Event) error
}

// App wires stores, access policy, the session manager, and the outbox into
// one service. All inbound events enter through HandleEvent.
type App struct {
	users      storage.UserStore
	operators  storage.OperatorStore
	wallpapers storage.WallpaperStore
	policy     *access.Policy
	sessions   *session.Manager[Event]
	out        Outbox
	commands   map[string]command
}

// NewApp constructs the service and registers its state and command tables.
func NewApp(store storage.Store, policy *access.Policy, out Outbox, sessionTTL time.Duration) *App {
	a := &App{
		users:      store,
		operators:  store,
		wallpapers: store,
		policy:     policy,
		sessions:   session.NewManager[Event](sessionTTL),
		out:        out,
	}

	a.sessions.Handle(session.StateAwaitingSecret, a.awaitSecret)
	a.sessions.Handle(session.StateAwaitingPhoto, a.awaitPhoto)
	a.sessions.Handle(session.StateAwaitingVisibility, a.awaitVisibility)

	a.commands = map[string]command{
		CmdStart:     {action: a.handleStart},
		LabelGallery: {action: a.handleGallery},
		LabelVIP:     {action: a.handleVIPInfo},
		LabelInfo:    {action: a.handleInfo},
		LabelAdmin:   {action: a.handleAdmin},
		LabelUpload:  {requiresOperator: true, action: a.handleUpload},
		LabelExit:    {action: a.handleExitAdmin},
	}
	return a
}

// HandleEvent routes one inbound event: an active session claims it first;
// otherwise it is matched against the static command table. Unknown labels
// and unexpected kinds are silently ignored.
func (a *App) HandleEvent(ctx context.Context, ev Event) error {
	handled, err := a.sessions.Dispatch(ctx, ev.UserID, ev)
	if handled {
		return err
	}

	switch ev.Kind {
	case KindText:
		cmd, ok := a.commands[ev.Text]
		if !ok {
			logger.Debug(ctx, "bot", "command.unknown",
				slog.Int64("user_id", ev.UserID),
				slog.String("payload", logger.SanitizeLimit(ev.Text, 64)),
			)
			return nil
		}
		if cmd.requiresOperator {
			canOp, err := a.policy.CanOperate(ctx, ev.UserID)
			if err != nil {
				return err
			}
			if !canOp {
				return a.out.SendText(ctx, ev.ChatID, textOperatorsOnly, KeyboardNone)
			}
		}
		return cmd.action(ctx, ev)
	case KindButton:
		return a.handleStrayButton(ctx, ev)
	default:
		return nil
	}
}

// --- static commands ---

func (a *App) handleStart(ctx context.Context, ev Event) error {
	if err := a.users.EnsureUser(ctx, ev.UserID); err != nil {
		return err
	}
	return a.out.SendText(ctx, ev.ChatID, textGreeting, KeyboardMain)
}

func (a *App) handleGallery(ctx context.Context, ev Event) error {
	elevated, err := a.policy.CanViewRestricted(ctx, ev.UserID)
	if err != nil {
		a.sendFailure(ctx, ev.ChatID)
		return err
	}
	fileIDs, err := a.wallpapers.ListVisible(ctx, elevated)
	if err != nil {
		a.sendFailure(ctx, ev.ChatID)
		return err
	}
	if len(fileIDs) == 0 {
		return a.out.SendText(ctx, ev.ChatID, textNoPapers, KeyboardNone)
	}
	// Photo delivery is best effort: a dead file handle skips one photo,
	// never the whole batch.
	for _, fileID := range fileIDs {
		if err := a.out.SendPhoto(ctx, ev.ChatID, fileID); err != nil {
			logger.Warn(ctx, "bot", "gallery.photo.skip",
				slog.Int64("user_id", ev.UserID),
				slog.String("err", err.Error()),
			)
		}
	}
	logger.Info(ctx, "bot", "gallery.sent",
		slog.Int64("user_id", ev.UserID),
		slog.Bool("elevated", elevated),
		slog.Int("count", len(fileIDs)),
	)
	return nil
}

func (a *App) handleVIPInfo(ctx context.Context, ev Event) error {
	return a.out.SendText(ctx, ev.ChatID, textVIPInfo, KeyboardNone)
}

func (a *App) handleInfo(ctx context.Context, ev Event) error {
	return a.out.SendText(ctx, ev.ChatID, textInfo, KeyboardNone)
}

func (a *App) handleAdmin(ctx context.Context, ev Event) error {
	canOp, err := a.policy.CanOperate(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if canOp {
		// Already authenticated: straight to the admin menu, no re-prompt.
		return a.out.SendText(ctx, ev.ChatID, textAdminWelcome, KeyboardAdmin)
	}
	a.sessions.Begin(ctx, ev.UserID, session.StateAwaitingSecret)
	return a.out.SendText(ctx, ev.ChatID, textSecretPrompt, KeyboardNone)
}

func (a *App) handleUpload(ctx context.Context, ev Event) error {
	a.sessions.Begin(ctx, ev.UserID, session.StateAwaitingPhoto)
	return a.out.SendText(ctx, ev.ChatID, textPhotoPrompt, KeyboardNone)
}

func (a *App) handleExitAdmin(ctx context.Context, ev Event) error {
	if err := a.operators.RevokeOperator(ctx, ev.UserID); err != nil {
		return err
	}
	return a.out.SendText(ctx, ev.ChatID, textAdminExit, KeyboardMain)
}

// handleStrayButton processes a publish button pressed outside any session,
// e.g. from a keyboard left over in chat history. Operator status is
// re-verified because the session that produced the keyboard is gone.
func (a *App) handleStrayButton(ctx context.Context, ev Event) error {
	key, fileID := splitPayload(ev.Payload)
	if key != PayloadPublishAll && key != PayloadPublishVIP {
		return nil
	}
	canOp, err := a.policy.CanOperate(ctx, ev.UserID)
	if err != nil {
		return err
	}
	if !canOp {
		return a.out.SendText(ctx, ev.ChatID, textOperatorsOnly, KeyboardNone)
	}
	if fileID == "" {
		return nil
	}
	return a.publish(ctx, ev, fileID, key)
}

// --- session state handlers ---

func (a *App) awaitSecret(ctx context.Context, s *session.Session, ev Event) error {
	if ev.Kind != KindText {
		return nil
	}
	// Single shot: the session ends on both outcomes, re-invoking the
	// admin command is the only way to retry.
	s.End()
	ok, err := a.policy.OperatorLogin(ctx, s.Owner, ev.Text)
	if err != nil {
		a.sendFailure(ctx, ev.ChatID)
		return err
	}
	if !ok {
		logger.Info(ctx, "bot", "admin.login",
			slog.String("status", "fail"),
			slog.Int64("user_id", s.Owner),
		)
		return a.out.SendText(ctx, ev.ChatID, textSecretWrong, KeyboardNone)
	}
	logger.Info(ctx, "bot", "admin.login",
		slog.String("status", "ok"),
		slog.Int64("user_id", s.Owner),
	)
	return a.out.SendText(ctx, ev.ChatID, textSecretOK, KeyboardAdmin)
}

func (a *App) awaitPhoto(ctx context.Context, s *session.Session, ev Event) error {
	if ev.Kind != KindPhoto || ev.PhotoID == "" {
		// Anything but a photo is absorbed; the upload stays open.
		return nil
	}
	s.PendingFileID = ev.PhotoID
	s.Transition(session.StateAwaitingVisibility)
	return a.out.SendVisibilityChoice(ctx, ev.ChatID, ev.PhotoID)
}

func (a *App) awaitVisibility(ctx context.Context, s *session.Session, ev Event) error {
	if ev.Kind != KindButton {
		return nil
	}
	key, _ := splitPayload(ev.Payload)
	if key != PayloadPublishAll && key != PayloadPublishVIP {
		return nil
	}
	s.End()
	return a.publish(ctx, ev, s.PendingFileID, key)
}

func (a *App) publish(ctx context.Context, ev Event, fileID, key string) error {
	visibility := storage.VisibilityPublic
	confirmation := textSavedAll
	if key == PayloadPublishVIP {
		visibility = storage.VisibilityRestricted
		confirmation = textSavedVIP
	}
	id, err := a.wallpapers.Add(ctx, fileID, visibility)
	if err != nil {
		a.sendFailure(ctx, ev.ChatID)
		return err
	}
	logger.Info(ctx, "bot", "wallpaper.added",
		slog.Int64("user_id", ev.UserID),
		slog.Int64("wallpaper_id", id),
		slog.String("visibility", string(visibility)),
	)
	return a.out.SendText(ctx, ev.ChatID, confirmation, KeyboardNone)
}

// sendFailure delivers the generic failure message, best effort.
func (a *App) sendFailure(ctx context.Context, chatID int64) {
	if err := a.out.SendText(ctx, chatID, textSendFailed, KeyboardNone); err != nil {
		logger.Warn(ctx, "bot", "failure.notify.skip",
			slog.Int64("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}
