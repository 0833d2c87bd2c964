package auth

import (
	"context"
	"log/slog"

	errors "github.com/frahmantamala/club-ledger/internal"
	"github.com/frahmantamala/club-ledger/internal/member"
)

// MemberStore is the slice of the member service auth depends on.
type MemberStore interface {
	Authenticate(ctx context.Context, email, password string) (*member.Member, error)
	Get(ctx context.Context, id int64) (*member.Member, error)
}

// Service is the main auth service with dependencies
type Service struct {
	members        MemberStore
	tokenGenerator TokenGenerator
	logger         *slog.Logger
}

func NewService(members MemberStore, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		members:        members,
		tokenGenerator: tokenGen,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	m, err := s.members.Authenticate(ctx, dto.Email, dto.Password)
	if err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("member logged in", "member_id", m.ID, "role", m.Role)
	return s.issue(m)
}

// RefreshTokens exchanges a refresh token for a new pair. The member is
// re-read so role changes and deactivation apply immediately.
func (s *Service) RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokenGenerator.ValidateToken(dto.RefreshToken, TokenTypeRefresh)
	if err != nil {
		return AuthTokens{}, err
	}

	m, err := s.activeMember(ctx, claims.MemberID)
	if err != nil {
		return AuthTokens{}, err
	}
	return s.issue(m)
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString, TokenTypeAccess)
}

// ResolveActor turns an access token into the acting member.
func (s *Service) ResolveActor(ctx context.Context, tokenString string) (*errors.Actor, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}
	m, err := s.activeMember(ctx, claims.MemberID)
	if err != nil {
		return nil, err
	}
	return m.Actor(), nil
}

func (s *Service) activeMember(ctx context.Context, id int64) (*member.Member, error) {
	m, err := s.members.Get(ctx, id)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return nil, errors.ErrInvalidToken
		}
		return nil, err
	}
	if !m.IsActive {
		return nil, errors.ErrUserInactive
	}
	return m, nil
}

func (s *Service) issue(m *member.Member) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(m.ID, m.Role)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to sign access token", err)
	}
	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(m.ID, m.Role)
	if err != nil {
		return AuthTokens{}, errors.NewInternalError("failed to sign refresh token", err)
	}

	tokens := AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}
	if claims, err := s.tokenGenerator.ValidateToken(accessToken, TokenTypeAccess); err == nil && claims.ExpiresAt != nil {
		tokens.ExpiresAt = claims.ExpiresAt.Time
	}
	return tokens, nil
}

// RBACAuthorization returns the role middleware used by the router.
func (s *Service) RBACAuthorization() *RBACAuthorization {
	return NewRBACAuthorization(s.logger)
}
