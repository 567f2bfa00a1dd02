// Package storage persists user records, operator membership, and the
// wallpaper catalog. Implementations must be safe for concurrent use.
package storage

import "context"

// Visibility classifies who may see a wallpaper.
type Visibility string

const (
	// VisibilityPublic marks a wallpaper available to everyone.
	VisibilityPublic Visibility = "all"
	// VisibilityRestricted marks a wallpaper available to VIP users only.
	VisibilityRestricted Visibility = "vip"
)

// Valid reports whether v is a known visibility class.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityRestricted
}

// UserStore persists end-user records.
type UserStore interface {
	// EnsureUser inserts the user if absent. Duplicate calls are no-ops.
	EnsureUser(ctx context.Context, userID int64) error
	// IsElevated reports the VIP flag; unknown users are not elevated.
	IsElevated(ctx context.Context, userID int64) (bool, error)
}

// OperatorStore persists the set of authenticated operators.
type OperatorStore interface {
	IsOperator(ctx context.Context, userID int64) (bool, error)
	// GrantOperator inserts the membership row. Duplicate grants are no-ops.
	GrantOperator(ctx context.Context, userID int64) error
	// RevokeOperator removes the membership row. Absent rows are no-ops.
	RevokeOperator(ctx context.Context, userID int64) error
}

// WallpaperStore persists the wallpaper catalog.
type WallpaperStore interface {
	// Add appends a wallpaper and returns its assigned id.
	Add(ctx context.Context, fileID string, visibility Visibility) (int64, error)
	// ListVisible returns file ids in insertion order: every entry when
	// elevated, only public entries otherwise. An empty result is a valid
	// outcome, not an error.
	ListVisible(ctx context.Context, elevated bool) ([]string, error)
}

// Store bundles the three persistence surfaces backed by one database.
type Store interface {
	UserStore
	OperatorStore
	WallpaperStore
}
