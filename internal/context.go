package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextMemberKey ctxKey = "member"

// Actor is the authenticated member acting on a request.
type Actor struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

const (
	RoleMember    = "member"
	RoleTreasurer = "treasurer"
	RolePresident = "president"
	RoleAdmin     = "admin"
)

// ApproverRoles may approve, reject and reimburse expenses.
var ApproverRoles = []string{RoleTreasurer, RolePresident, RoleAdmin}

func (a *Actor) HasRole(roles ...string) bool {
	if a == nil {
		return false
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (a *Actor) IsApprover() bool {
	return a.HasRole(ApproverRoles...)
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	if ctx == nil {
		return nil, false
	}
	actor, ok := ctx.Value(ContextMemberKey).(*Actor)
	return actor, ok && actor != nil
}

func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ContextMemberKey, actor)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

// DetachedTimeout keeps the values of ctx but not its cancellation, so a client
// disconnect cannot abort a store write halfway. The write is still bounded by
// duration.
func DetachedTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return WithTimeout(context.WithoutCancel(ctx), duration)
}
