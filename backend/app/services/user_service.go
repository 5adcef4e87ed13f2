package services

import (
	"context"
	"errors"

	"compliance-feed/backend/app/models"
	"compliance-feed/backend/app/repo"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// DefaultRole is given to operators created without a role. It is not a
// trusted role unless configured as one.
const DefaultRole = "reader"

type UserService struct{ users *repo.UserRepository }

func NewUserService(users *repo.UserRepository) *UserService { return &UserService{users: users} }

// EnsureAdmin creates the bootstrap operator unless the name is taken.
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	count, err := s.users.CountByUsername(ctx, username)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return s.CreateUser(ctx, username, password, "admin")
}

func (s *UserService) CreateUser(ctx context.Context, username, password, role string) error {
	if role == "" {
		role = DefaultRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.Create(ctx, &models.Operator{Username: username, PasswordHash: string(hash), Role: role})
}

func (s *UserService) ValidateCredentials(ctx context.Context, username, password string) (*models.Operator, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
