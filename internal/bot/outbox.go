package bot

import "context"

// Keyboard selects which reply keyboard accompanies an outbound text.
type Keyboard int

const (
	// KeyboardNone leaves the current keyboard untouched.
	KeyboardNone Keyboard = iota
	// KeyboardMain shows the end-user menu.
	KeyboardMain
	// KeyboardAdmin shows the operator menu.
	KeyboardAdmin
)

// Outbox is the outbound half of the transport. Implementations own
// delivery details (retries, rate limits); the application treats a
// returned error as undeliverable and moves on.
type Outbox interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	// SendPhoto delivers a photo by its opaque handle.
	SendPhoto(ctx context.Context, chatID int64, fileID string) error
	// SendVisibilityChoice prompts with the publish-all / publish-vip
	// inline buttons carrying the given file handle.
	SendVisibilityChoice(ctx context.Context, chatID int64, fileID string) error
}
