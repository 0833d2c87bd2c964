package member

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	errors "github.com/frahmantamala/club-ledger/internal"
)

type Repository interface {
	Create(ctx context.Context, m *Member) (int64, error)
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	List(ctx context.Context, limit, offset int) ([]*Member, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*Member, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	timeout    time.Duration
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, timeout time.Duration, logger *slog.Logger) *Service {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		timeout:    timeout,
		logger:     logger,
	}
}

// Register adds a member. Only admins may register members.
func (s *Service) Register(ctx context.Context, actor *errors.Actor, dto RegisterMemberDTO) (*Member, error) {
	if !actor.HasRole(errors.RoleAdmin) {
		return nil, errors.NewForbiddenError("only admins can register members", errors.ErrCodeUnauthorizedAccess)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	role := dto.Role
	if role == "" {
		role = errors.RoleMember
	}
	now := time.Now()
	m := &Member{
		Name:         strings.TrimSpace(dto.Name),
		Email:        dto.NormalizedEmail(),
		Phone:        strings.TrimSpace(dto.Phone),
		Role:         role,
		PasswordHash: string(hash),
		IsActive:     true,
		JoinedAt:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	storeCtx, cancel := errors.DetachedTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.repo.Create(storeCtx, m)
	if err != nil {
		s.logger.Warn("failed to register member", "email", m.Email, "error", err)
		return nil, err
	}
	m.ID = id

	s.logger.Info("member registered", "member_id", id, "role", role, "actor_id", actor.ID)
	return m, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Member, error) {
	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Member, error) {
	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.List(ctx, limit, offset)
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Member, error) {
	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	m, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return nil, errors.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return nil, errors.ErrInvalidCredentials
	}
	if !m.IsActive {
		return nil, errors.ErrUserInactive
	}
	return m, nil
}

// MemberExists reports whether id names a registered member.
func (s *Service) MemberExists(ctx context.Context, id int64) (bool, error) {
	_, err := s.Get(ctx, id)
	if err != nil {
		if errors.IsErrorType(err, errors.ErrorTypeNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Names resolves display names for reports. Unknown ids are omitted.
func (s *Service) Names(ctx context.Context, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	ctx, cancel := errors.WithTimeout(ctx, s.timeout)
	defer cancel()

	members, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		names[m.ID] = m.Name
	}
	return names, nil
}
