package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/punchamoorthee/rewardledger/internal/domain"
)

// RegisterRequest carries the profile of a new user.
type RegisterRequest struct {
	Role    domain.Role
	Name    string
	Phone   string
	Details map[string]string
}

type UserService struct {
	users  UserRepository
	ledger Ledger
	logger *slog.Logger
	now    func() time.Time
}

func NewUserService(users UserRepository, ledger Ledger, logger *slog.Logger) *UserService {
	return &UserService{users: users, ledger: ledger, logger: logger, now: time.Now}
}

// Register creates the user and provisions an empty wallet for it.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (domain.User, error) {
	role := domain.Role(strings.ToLower(strings.TrimSpace(string(req.Role))))
	if !role.Valid() {
		return domain.User{}, fmt.Errorf("%w: %q", domain.ErrInvalidRole, req.Role)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Role:         role,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Details:      req.Details,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.users.CreateUser(user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.ledger.Provision(user.ID)

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID), slog.String("role", string(role)))
	return user, nil
}

func (s *UserService) User(ctx context.Context, id string) (domain.User, error) {
	return s.users.User(id)
}
