package service

import (
	"context"
	"errors"
	"strings"

	"amendvote-be/internal/domain"
	"amendvote-be/internal/repository"
	apperrors "amendvote-be/pkg/errors"
	"amendvote-be/pkg/logger"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, login, logout and token validation.
type AuthService struct {
	users    repository.UserRepository
	sessions SessionStore
	log      *logger.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(users repository.UserRepository, sessions SessionStore, log *logger.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, log: log}
}

// Signup registers a new non-admin voter and opens a session for them.
func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	if err := validateCredentials(req.Name, req.Email, req.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.NewStorageError("Signup failed", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("Email already in use")
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, false)
	if err != nil {
		return nil, err
	}

	token, err := s.sessions.Create(ctx, domain.Session{
		UserID:  user.ID,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, apperrors.NewStorageError("Signup failed", err)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": user.ID,
	}).Info("user registered")

	return &domain.AuthResponse{
		Message:      "Signup successful",
		SessionToken: token,
		IsAdmin:      user.IsAdmin,
	}, nil
}

// Login verifies credentials and opens a new session. Existing sessions for
// the user stay valid.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.NewStorageError("Login failed", err)
	}
	if user == nil {
		return nil, apperrors.NewAuthenticationError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.NewAuthenticationError("Invalid credentials")
	}

	token, err := s.sessions.Create(ctx, domain.Session{
		UserID:  user.ID,
		Name:    user.Name,
		IsAdmin: user.IsAdmin,
	})
	if err != nil {
		return nil, apperrors.NewStorageError("Login failed", err)
	}

	return &domain.AuthResponse{
		Message:      "Login successful",
		SessionToken: token,
		IsAdmin:      user.IsAdmin,
		Name:         user.Name,
	}, nil
}

// Logout revokes the given session token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	deleted, err := s.sessions.Delete(ctx, token)
	if err != nil {
		return apperrors.NewStorageError("Logout failed", err)
	}
	if !deleted {
		return apperrors.NewInvalidInputError("Invalid session token")
	}
	return nil
}

// Authenticate resolves a bearer token to its session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, apperrors.NewAuthenticationError("Not authorized, no token")
	}

	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		return nil, apperrors.NewStorageError("Authentication failed", err)
	}
	if session == nil {
		return nil, apperrors.NewAuthenticationError("Not authorized, token failed")
	}

	return session, nil
}

// CreateAdmin registers an admin user. No session is opened; the new admin
// logs in normally.
func (s *AuthService) CreateAdmin(ctx context.Context, req *domain.SignupRequest) (int64, error) {
	if err := validateCredentials(req.Name, req.Email, req.Password); err != nil {
		return 0, err
	}

	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return 0, apperrors.NewStorageError("Failed to create admin user", err)
	}
	if existing != nil {
		return 0, apperrors.NewConflictError("Email already in use")
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, true)
	if err != nil {
		return 0, err
	}

	s.log.WithField("user_id", user.ID).Info("admin user created")

	return user.ID, nil
}

func (s *AuthService) createUser(ctx context.Context, name, email, password string, isAdmin bool) (*domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewStorageError("Failed to hash password", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		IsAdmin:      isAdmin,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// The email unique constraint is the backstop against a concurrent
		// signup racing the existence check.
		if pgErr, ok := unwrapPgError(err); ok && pgErr.Code == uniqueViolationCode {
			return nil, apperrors.NewConflictError("Email already in use")
		}
		return nil, apperrors.NewStorageError("Failed to create user", err)
	}

	return user, nil
}

func validateCredentials(name, email, password string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewInvalidInputError("Name is required")
	}
	if !strings.Contains(email, "@") {
		return apperrors.NewInvalidInputError("Valid email is required")
	}
	if len(password) < 6 {
		return apperrors.NewInvalidInputError("Password must be at least 6 characters")
	}
	return nil
}

// uniqueViolationCode is Postgres error class 23505.
const uniqueViolationCode = "23505"

func unwrapPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}
