package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CreateUserInput registers a user from the admin back-office.
type CreateUserInput struct {
	Email string      `json:"email" validate:"required,email,max=254"`
	Name  string      `json:"name" validate:"required,max=100"`
	Role  domain.Role `json:"role" validate:"omitempty,oneof=user admin"`
}

// UpdateRoleInput changes a user's role.
type UpdateRoleInput struct {
	Role domain.Role `json:"role" validate:"required,oneof=user admin"`
}

// Users is the admin user management service.
type Users struct {
	repo     domain.UserRepository
	validate *validator.Validate
	pageSize int
	logger   *slog.Logger
}

// NewUsers creates the user service.
func NewUsers(repo domain.UserRepository, pageSize int, logger *slog.Logger) *Users {
	return &Users{repo: repo, validate: newValidator(), pageSize: pageSize, logger: logger}
}

// Create registers a user. Emails are unique case-insensitively.
func (s *Users) Create(ctx context.Context, in CreateUserInput) (domain.User, error) {
	if err := check(s.validate, in); err != nil {
		return domain.User{}, err
	}
	u := domain.User{
		ID:        uuid.New(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Name:      strings.TrimSpace(in.Name),
		Role:      in.Role,
		CreatedAt: domain.Now().UTC(),
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	if err := s.repo.CreateUser(ctx, &u); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Get returns one user.
func (s *Users) Get(ctx context.Context, id uuid.UUID) (domain.User, error) {
	u, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// List pages through users matching search on name or email.
func (s *Users) List(ctx context.Context, search string, page domain.PageRequest) (domain.Page[domain.User], error) {
	page = domain.NormalizePage(page.Page, page.Limit, s.pageSize)
	users, total, err := s.repo.ListUsers(ctx, strings.TrimSpace(search), page)
	if err != nil {
		return domain.Page[domain.User]{}, fmt.Errorf("list users: %w", err)
	}
	return domain.Page[domain.User]{Items: nonNil(users), Pagination: domain.NewPagination(total, page)}, nil
}

// UpdateRole changes a user's role.
func (s *Users) UpdateRole(ctx context.Context, id uuid.UUID, in UpdateRoleInput) (domain.User, error) {
	if err := check(s.validate, in); err != nil {
		return domain.User{}, err
	}
	u, err := s.repo.UpdateUserRole(ctx, id, in.Role)
	if err != nil {
		return domain.User{}, fmt.Errorf("update user %s: %w", id, err)
	}
	s.logger.Info("user role changed", "user_id", id, "role", in.Role)
	return u, nil
}

// Delete removes a user. Their incidents are kept without a reporter.
func (s *Users) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	s.logger.Info("user deleted", "user_id", id)
	return nil
}
