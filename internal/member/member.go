package member

import (
	"time"

	errors "github.com/frahmantamala/club-ledger/internal"
	memberDatamodel "github.com/frahmantamala/club-ledger/internal/core/datamodel/member"
)

type Member struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	JoinedAt     time.Time `json:"joined_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Roles lists every assignable member role.
var Roles = []string{errors.RoleMember, errors.RoleTreasurer, errors.RolePresident, errors.RoleAdmin}

// Actor is the request identity derived from the member.
func (m *Member) Actor() *errors.Actor {
	return &errors.Actor{ID: m.ID, Email: m.Email, Name: m.Name, Role: m.Role}
}

func ToDataModel(m *Member) *memberDatamodel.Member {
	return &memberDatamodel.Member{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		Role:         m.Role,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		JoinedAt:     m.JoinedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func FromDataModel(m *memberDatamodel.Member) *Member {
	return &Member{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		Phone:        m.Phone,
		Role:         m.Role,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		JoinedAt:     m.JoinedAt,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
