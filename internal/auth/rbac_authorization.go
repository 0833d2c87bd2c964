package auth

import (
	"log/slog"
	"net/http"
	"strings"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/transport"
)

// RBACAuthorization guards routes by the role of the acting member.
type RBACAuthorization struct {
	*transport.BaseHandler
	logger *slog.Logger
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	base := transport.NewBaseHandler(logger)
	return &RBACAuthorization{
		BaseHandler: base,
		logger:      base.Logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ra.Actor(w, r)
		if !ok {
			return
		}

		if !actor.HasRole(roles...) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient role",
				"member_id", actor.ID,
				"role", actor.Role,
				"required_roles", strings.Join(roles, ","))
			ra.HandleServiceError(w, errors.NewForbiddenError("insufficient role for this action", errors.ErrCodeUnauthorizedAccess))
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, roles...)
	}
}

// RequireApprover admits treasurers, presidents and admins.
func (ra *RBACAuthorization) RequireApprover() func(http.Handler) http.Handler {
	return ra.RequireRoles(errors.ApproverRoles...)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(errors.RoleAdmin)
}
