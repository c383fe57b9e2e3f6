package auth

import (
	"context"
	"errors"
	"fmt"

	"cafefinder/model"
	"cafefinder/repository"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrUnknownEmail  = errors.New("email not registered")
	ErrWrongPassword = errors.New("incorrect password")
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service struct {
	users UserStore
	cost  int
}

type Option func(*Service)

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func NewService(users UserStore, opts ...Option) *Service {
	s := &Service{users: users, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a user with a hashed password. An email that is already in
// use yields ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return nil, ErrEmailTaken
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("look up email: %w", err)
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return nil, err
	}

	user := &model.User{Email: email, Password: hash}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Authenticate returns the user whose email and password match.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownEmail
		}
		return nil, fmt.Errorf("look up email: %w", err)
	}

	if !CheckPassword(user.Password, password) {
		return nil, ErrWrongPassword
	}
	return user, nil
}

// HashPassword returns the bcrypt hash of password at the given cost.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the bcrypt hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
