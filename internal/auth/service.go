package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/timeR3/ToolCTV/internal"
	userDatamodel "github.com/timeR3/ToolCTV/internal/core/datamodel/user"
)

// UserRepository is the slice of the credential store the auth service needs.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetAssignedToolIDs(ctx context.Context, userID int64) ([]int64, error)
	Create(ctx context.Context, u *userDatamodel.User) error
}

// Service verifies credentials, issues sessions and resolves the current
// user. All store access is bounded by queryTimeout.
type Service struct {
	repo         UserRepository
	sessions     *SessionManager
	bcryptCost   int
	queryTimeout time.Duration
	logger       *slog.Logger
}

func NewService(repo UserRepository, sessions *SessionManager, bcryptCost int, queryTimeout time.Duration, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:         repo,
		sessions:     sessions,
		bcryptCost:   bcryptCost,
		queryTimeout: queryTimeout,
		logger:       logger,
	}
}

// Sessions exposes the session manager so handlers can set/clear cookies.
func (s *Service) Sessions() *SessionManager {
	return s.sessions
}

// Login verifies email/password and returns the account to start a session
// for. Unknown email and wrong password produce the identical
// ErrInvalidCredentials; store faults produce ErrStoreError with detail
// logged here, never returned.
func (s *Service) Login(ctx context.Context, dto LoginDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	email := NormalizeEmail(dto.Email)

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, internal.ErrInvalidCredentials
		}
		s.logger.ErrorContext(ctx, "login: user lookup failed", "email", email, "error", err)
		return nil, internal.ErrStoreError
	}

	if err := bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(dto.Password)); err != nil {
		return nil, internal.ErrInvalidCredentials
	}

	return &User{
		ID:     row.ID,
		Name:   row.Name,
		Email:  row.Email,
		Avatar: row.Avatar,
		Role:   Role(row.Role),
	}, nil
}

// Register creates a new account with role forced to User. The caller must
// log in separately afterwards.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	email := NormalizeEmail(dto.Email)

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return internal.ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		s.logger.ErrorContext(ctx, "register: email lookup failed", "email", email, "error", err)
		return internal.ErrStoreError
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "register: password hash failed", "error", err)
		return internal.ErrStoreError
	}

	now := time.Now()
	row := &userDatamodel.User{
		Name:         dto.Name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         string(RoleUser),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.ErrorContext(ctx, "register: insert failed", "email", email, "error", err)
		return internal.ErrStoreError
	}

	return nil
}

// CurrentUser resolves session claims to the full user record, assigned
// tool set included. A stale session (deleted user) or any store fault
// resolves to nil, indistinguishable from "never logged in".
func (s *Service) CurrentUser(ctx context.Context, claims *SessionClaims) *User {
	if claims == nil {
		return nil
	}

	ctx, cancel := internal.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	row, err := s.repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.ErrorContext(ctx, "currentUser: lookup failed", "user_id", claims.UserID, "error", err)
		}
		return nil
	}

	toolIDs, err := s.repo.GetAssignedToolIDs(ctx, row.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "currentUser: assigned tools lookup failed", "user_id", row.ID, "error", err)
		return nil
	}

	return &User{
		ID:            row.ID,
		Name:          row.Name,
		Email:         row.Email,
		Avatar:        row.Avatar,
		Role:          Role(row.Role),
		AssignedTools: toolIDs,
	}
}

// HashPassword creates a bcrypt hash with the service's configured cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NormalizeEmail lowercases and trims an email address. Applied at both
// registration and login so case differences cannot split one identity into
// two accounts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
