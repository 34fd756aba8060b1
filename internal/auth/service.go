// Package auth implements account registration, login, token issuance and
// self-service profile updates.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"iptrack/internal/domain"
	"iptrack/internal/metrics"
	apperrors "iptrack/pkg/errors"
	"iptrack/pkg/logger"

	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgSignupFailed      = "Registering user failed, please try again later."
	msgUserExists        = "User exists already, register another user instead."
	msgInvalidCredential = "Invalid credentials, could not log you in."
	msgLoginFailed       = "Logging in failed, please try again later."
	msgUpdateFailed      = "Something went wrong, could not update user."
	msgUserNotFound      = "Could not find user."
	msgNotAllowed        = "You're not allowed to perform this action."
)

// Service provides user registration, login, and token issuance.
type Service struct {
	repo       Repository
	tokens     *TokenIssuer
	bcryptCost int
	logger     logger.Logger
}

// NewService constructs a Service. bcryptCost is the work factor used for
// every new password hash.
func NewService(repo Repository, tokens *TokenIssuer, bcryptCost int, log logger.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     log,
	}
}

// SignUpRequest captures the fields required to create a new user.
type SignUpRequest struct {
	Email       string `json:"email" validate:"required,email,max=255"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"omitempty,max=128"`
	Role        string `json:"role" validate:"omitempty,alphanum,max=32"`
}

type SignUpResponse struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// LoginRequest captures credentials for login. Only presence is checked;
// anything else fails as invalid credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	UserID    int64     `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UpdateUserRequest holds the optional profile changes for PATCH.
type UpdateUserRequest struct {
	Email       *string `json:"email" validate:"omitempty,email,max=255"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=128"`
	Role        *string `json:"role" validate:"omitempty,alphanum,max=32"`
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates a new user. The existence check only produces a friendlier
// error early; the unique constraint on users.email is what actually
// rejects concurrent duplicates.
func (s *Service) SignUp(ctx context.Context, req *SignUpRequest) (*SignUpResponse, error) {
	email := NormalizeEmail(req.Email)

	role := domain.Role(strings.ToLower(strings.TrimSpace(req.Role)))
	if role == "" {
		role = domain.RoleUser
	}
	if role == domain.RoleAdmin {
		return nil, apperrors.E(apperrors.KindValidation, "The admin role cannot be self-assigned.", nil)
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("Signup existence check failed", map[string]interface{}{"error": err.Error()})
		metrics.AuthEvents.WithLabelValues("signup", "error").Inc()
		return nil, apperrors.E(apperrors.KindInternal, msgSignupFailed, err)
	}
	if exists {
		metrics.AuthEvents.WithLabelValues("signup", "conflict").Inc()
		return nil, apperrors.E(apperrors.KindConflict, msgUserExists, apperrors.ErrUserAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("Password hashing failed", map[string]interface{}{"error": err.Error()})
		metrics.AuthEvents.WithLabelValues("signup", "error").Inc()
		return nil, apperrors.E(apperrors.KindInternal, "Could not register user, please try again.", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(passwordHash),
		DisplayName:  strings.TrimSpace(req.DisplayName),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if isUniqueViolation(err) || errors.Is(err, apperrors.ErrUserAlreadyExists) {
			metrics.AuthEvents.WithLabelValues("signup", "conflict").Inc()
			return nil, apperrors.E(apperrors.KindConflict, msgUserExists, err)
		}
		s.logger.Error("Creating user failed", map[string]interface{}{"error": err.Error()})
		metrics.AuthEvents.WithLabelValues("signup", "error").Inc()
		return nil, apperrors.E(apperrors.KindInternal, msgSignupFailed, err)
	}

	metrics.AuthEvents.WithLabelValues("signup", "success").Inc()
	return &SignUpResponse{UserID: user.ID, Email: user.Email}, nil
}

// Login verifies credentials and mints an access token. An unknown email
// and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			metrics.AuthEvents.WithLabelValues("login", "rejected").Inc()
			return nil, apperrors.E(apperrors.KindForbidden, msgInvalidCredential, apperrors.ErrInvalidCredentials)
		}
		s.logger.Error("Login lookup failed", map[string]interface{}{"error": err.Error()})
		metrics.AuthEvents.WithLabelValues("login", "error").Inc()
		return nil, apperrors.E(apperrors.KindInternal, msgLoginFailed, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		metrics.AuthEvents.WithLabelValues("login", "rejected").Inc()
		return nil, apperrors.E(apperrors.KindForbidden, msgInvalidCredential, apperrors.ErrInvalidCredentials)
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		s.logger.Error("Token signing failed", map[string]interface{}{"error": err.Error()})
		metrics.AuthEvents.WithLabelValues("login", "error").Inc()
		return nil, apperrors.E(apperrors.KindInternal, msgLoginFailed, err)
	}

	metrics.AuthEvents.WithLabelValues("login", "success").Inc()
	return &LoginResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.E(apperrors.KindNotFound, msgUserNotFound, err)
		}
		s.logger.Error("Fetching user failed", map[string]interface{}{"user_id": id, "error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, "Something went wrong, could not find user", err)
	}
	return user, nil
}

// UpdateUser applies a profile update on behalf of subject. Users may only
// edit themselves; admins may edit anyone and change roles.
func (s *Service) UpdateUser(ctx context.Context, subject domain.Subject, id int64, req *UpdateUserRequest) (*domain.User, error) {
	if subject.UserID != id && !subject.IsAdmin() {
		return nil, apperrors.E(apperrors.KindForbidden, msgNotAllowed, nil)
	}

	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := NormalizeEmail(*req.Email)
		if email != user.Email {
			exists, err := s.repo.ExistsByEmail(ctx, email)
			if err != nil {
				s.logger.Error("Update existence check failed", map[string]interface{}{"error": err.Error()})
				return nil, apperrors.E(apperrors.KindInternal, msgUpdateFailed, err)
			}
			if exists {
				return nil, apperrors.E(apperrors.KindConflict, "Email address already exists!", apperrors.ErrUserAlreadyExists)
			}
			user.Email = email
		}
	}
	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Role != nil {
		role := domain.Role(strings.ToLower(strings.TrimSpace(*req.Role)))
		if role != "" && role != user.Role {
			if !subject.IsAdmin() {
				return nil, apperrors.E(apperrors.KindForbidden, msgNotAllowed, nil)
			}
			user.Role = role
		}
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), s.bcryptCost)
		if err != nil {
			s.logger.Error("Password hashing failed", map[string]interface{}{"error": err.Error()})
			return nil, apperrors.E(apperrors.KindInternal, "Could not update user, please try again.", err)
		}
		user.PasswordHash = string(hash)
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		if isUniqueViolation(err) || errors.Is(err, apperrors.ErrUserAlreadyExists) {
			return nil, apperrors.E(apperrors.KindConflict, "Email address already exists!", err)
		}
		s.logger.Error("Updating user failed", map[string]interface{}{"user_id": id, "error": err.Error()})
		return nil, apperrors.E(apperrors.KindInternal, msgUpdateFailed, err)
	}
	return user, nil
}

// VerifyToken exposes the issuer's verification to the request gate.
func (s *Service) VerifyToken(token string) (*domain.Subject, error) {
	return s.tokens.Verify(token)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// Repository interface
type Repository interface {
	// Create inserts the user and its role-group membership atomically and
	// sets user.ID.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
}
