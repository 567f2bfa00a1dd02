// Package access decides what a given user is allowed to see and do.
package access

import (
	"context"
	"crypto/subtle"

	"github.com/m3rciful/wallbot/internal/storage"
)

// Policy composes identity reads into access decisions.
type Policy struct {
	users     storage.UserStore
	operators storage.OperatorStore
	secret    string
}

// NewPolicy builds a Policy over the given stores and operator secret.
func NewPolicy(users storage.UserStore, operators storage.OperatorStore, secret string) *Policy {
	return &Policy{users: users, operators: operators, secret: secret}
}

// CanViewRestricted reports whether the user may see VIP-only wallpapers.
func (p *Policy) CanViewRestricted(ctx context.Context, userID int64) (bool, error) {
	return p.users.IsElevated(ctx, userID)
}

// CanOperate reports whether the user currently holds operator privileges.
func (p *Policy) CanOperate(ctx context.Context, userID int64) (bool, error) {
	return p.operators.IsOperator(ctx, userID)
}

// OperatorLogin compares the supplied secret against the configured one and
// grants operator status only on a match. The comparison is constant-time.
func (p *Policy) OperatorLogin(ctx context.Context, userID int64, supplied string) (bool, error) {
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(p.secret)) != 1 {
		return false, nil
	}
	if err := p.operators.GrantOperator(ctx, userID); err != nil {
		return false, err
	}
	return true, nil
}
