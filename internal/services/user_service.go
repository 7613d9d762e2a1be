package services

import (
	"context"
	"errors"
	"fmt"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, error)
	EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error)
	GetAllUsers(ctx context.Context) ([]models.User, error)
}

type RegisterUserInput struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Name     string          `json:"name"`
	Role     models.UserRole `json:"role"`
}

type userService struct {
	userRepo repository.UserRepository
	cost     int
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo, cost: bcrypt.DefaultCost}
}

func (s *userService) Register(ctx context.Context, input RegisterUserInput) (*models.User, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" {
		return nil, NewValidationError("email, password and name are required")
	}
	if input.Role == "" {
		input.Role = models.RoleUser
	}
	if !input.Role.Valid() {
		return nil, NewValidationError("invalid role %q", input.Role)
	}

	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, NewConflictError("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := hashPassword(input.Password, s.cost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewConflictError("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !checkPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureAdmin creates the admin account when the email is not registered
// yet. The boolean result reports whether a user was created.
func (s *userService) EnsureAdmin(ctx context.Context, email, password string) (*models.User, bool, error) {
	existing, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup admin: %w", err)
	}

	user, err := s.Register(ctx, RegisterUserInput{
		Email:    email,
		Password: password,
		Name:     "Administrator",
		Role:     models.RoleAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (s *userService) GetAllUsers(ctx context.Context) ([]models.User, error) {
	return s.userRepo.GetAll(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
