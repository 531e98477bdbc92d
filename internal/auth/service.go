package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/bowerhall/autopost/internal/logger"
	"github.com/bowerhall/autopost/internal/userstore"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSetupKey    = errors.New("invalid setup key")
	ErrAdminExists        = errors.New("operator already created")
	ErrSetupDisabled      = errors.New("setup key not configured")
)

const bcryptCost = 10

// Users is the credential storage the service needs. *userstore.Store
// satisfies it.
type Users interface {
	Create(ctx context.Context, username, passwordHash string) (*userstore.User, error)
	First(ctx context.Context) (*userstore.User, error)
	GetByID(ctx context.Context, id int64) (*userstore.User, error)
}

type Config struct {
	JWTSecret     string
	RefreshSecret string
	SetupKey      string
}

type Service struct {
	users         Users
	jwtSecret     []byte
	refreshSecret []byte
	setupKey      string
}

func NewService(users Users, cfg Config) *Service {
	return &Service{
		users:         users,
		jwtSecret:     []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		setupKey:      cfg.SetupKey,
	}
}

// Verify reports whether the login/password pair matches the operator
// credential. It fails closed: any storage error counts as a mismatch.
func (s *Service) Verify(ctx context.Context, login, password string) bool {
	user, err := s.users.First(ctx)
	if err != nil {
		if !errors.Is(err, userstore.ErrNoUser) {
			logger.Error("credential lookup failed", "error", err)
		} else {
			logger.Warn("login attempt before setup", "login", login)
		}
		return false
	}

	if login != user.Username {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// Login verifies the credential and issues a token pair.
func (s *Service) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	if !s.Verify(ctx, username, password) {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.First(ctx)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(user)
}

// CreateAdmin creates the sole operator credential, gated by the setup key.
func (s *Service) CreateAdmin(ctx context.Context, username, password, setupKey string) (*userstore.User, error) {
	if s.setupKey == "" {
		return nil, ErrSetupDisabled
	}

	if setupKey != s.setupKey {
		logger.Warn("setup rejected, bad key", "username", username)
		return nil, ErrInvalidSetupKey
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, userstore.ErrExists) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("create operator: %w", err)
	}

	logger.Info("operator created", "username", user.Username, "id", user.ID)
	return user, nil
}
