package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/bank-rest/internal/auth"
	"github.com/Dan9191/bank-rest/internal/models"
	"github.com/Dan9191/bank-rest/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles registration, login and user lookups
type UserService struct {
	repo      repository.UserStore
	log       *logrus.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewUserService initializes a new user service
func NewUserService(repo repository.UserStore, log *logrus.Logger, jwtSecret []byte, tokenTTL time.Duration) *UserService {
	return &UserService{repo: repo, log: log, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

// Register creates a new USER with a hashed password and returns a token for it
func (s *UserService) Register(ctx context.Context, name, email, password string) (string, *models.User, error) {
	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hashedPassword),
		Roles:        []models.Role{models.RoleUser},
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", nil, fmt.Errorf("%s: %w", user.Email, ErrUserAlreadyExists)
		}
		return "", nil, err
	}

	token, err := auth.NewToken(s.jwtSecret, user, s.tokenTTL, s.now())
	if err != nil {
		return "", nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return token, user, nil
}

// Login authenticates a user and returns a JWT token
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.repo.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := auth.NewToken(s.jwtSecret, user, s.tokenTTL, s.now())
	if err != nil {
		return "", err
	}

	s.log.Infof("User logged in: %s", user.Email)
	return token, nil
}

// Get returns a user by id
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindUserByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, ErrUserNotFound)
	}
	return user, err
}

// List returns every user
func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.repo.FindAllUsers(ctx)
}

// EnsureAdmin creates an ADMIN user with the given credentials unless the
// email is already registered.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	_, err := s.repo.FindUserByEmail(ctx, strings.ToLower(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &models.User{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: string(hashedPassword),
		Roles:        []models.Role{models.RoleUser, models.RoleAdmin},
	}
	if err := s.repo.CreateUser(ctx, admin); err != nil {
		return err
	}
	s.log.Infof("Admin user created: %s", admin.Email)
	return nil
}
