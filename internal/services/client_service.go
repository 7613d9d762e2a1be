package services

import (
	"context"
	"errors"
	"fmt"
	"order_manager/internal/models"
	"order_manager/internal/repository"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ClientService interface {
	Register(ctx context.Context, input RegisterClientInput) (*models.Client, error)
	Login(ctx context.Context, email, password string) (*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error)
	DeleteClient(ctx context.Context, id uuid.UUID) error
}

type RegisterClientInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

type clientService struct {
	store repository.UnitOfWork
	cost  int
}

func NewClientService(store repository.UnitOfWork) ClientService {
	return &clientService{store: store, cost: bcrypt.DefaultCost}
}

func (s *clientService) Register(ctx context.Context, input RegisterClientInput) (*models.Client, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" || strings.TrimSpace(input.Name) == "" || strings.TrimSpace(input.Phone) == "" {
		return nil, NewValidationError("email, password, name and phone are required")
	}

	clients := s.store.Clients()
	if _, err := clients.GetByEmail(ctx, email); err == nil {
		return nil, NewConflictError("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup client: %w", err)
	}

	hash, err := hashPassword(input.Password, s.cost)
	if err != nil {
		return nil, err
	}

	client := &models.Client{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
	}
	if err := clients.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, NewConflictError("email already registered")
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

func (s *clientService) Login(ctx context.Context, email, password string) (*models.Client, error) {
	client, err := s.store.Clients().GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup client: %w", err)
	}
	if !checkPassword(client.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return client, nil
}

func (s *clientService) GetClient(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	client, err := s.store.Clients().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("client", id)
		}
		return nil, fmt.Errorf("get client: %w", err)
	}
	return client, nil
}

// DeleteClient refuses to remove a client that still has orders; historical
// orders keep their reference.
func (s *clientService) DeleteClient(ctx context.Context, id uuid.UUID) error {
	return repository.WithinTx(ctx, s.store, func(tx repository.Tx) error {
		count, err := tx.Orders().CountByClient(ctx, id)
		if err != nil {
			return fmt.Errorf("count client orders: %w", err)
		}
		if count > 0 {
			return NewConflictError("client %s still has %d orders", id, count)
		}
		if err := tx.Clients().Delete(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewNotFoundError("client", id)
			}
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
}
