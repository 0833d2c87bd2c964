package member

import (
	"strings"

	"github.com/frahmantamala/club-ledger/internal/core/common/validation"
)

// RegisterMemberDTO adds a member to the club roster.
type RegisterMemberDTO struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=member treasurer president admin"`
}

func (dto RegisterMemberDTO) Validate() error {
	if appErr := validation.Struct(dto); appErr != nil {
		return appErr
	}
	return nil
}

// NormalizedEmail is the lower-cased address used for uniqueness.
func (dto RegisterMemberDTO) NormalizedEmail() string {
	return strings.ToLower(strings.TrimSpace(dto.Email))
}
