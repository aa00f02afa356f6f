// Package account implements login and the two-step password recovery for
// admin accounts.
package account

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aanand-mishra/student-records-api/internal/auth"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// ResetTokenTTL bounds the gap between /send-otp and /reset-password when
// the two steps are bound together.
const ResetTokenTTL = 10 * time.Minute

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidCode        = errors.New("invalid code, OTP not sent")
	ErrUnknownEmail       = errors.New("email not registered")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
	ErrPasswordTooLong    = errors.New("password longer than 72 bytes")
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(identity string) (string, error)
}

// Config holds the recovery settings.
type Config struct {
	// RecoveryCode is the shared code /send-otp must be called with.
	RecoveryCode string

	// BindReset makes /send-otp hand out a single-use reset token that
	// /reset-password must present.
	BindReset bool
}

// ResetGrant is the outcome of a successful RequestReset. Token is empty
// unless reset binding is enabled.
type ResetGrant struct {
	Token     string
	ExpiresAt time.Time
}

// Service coordinates admin lookups, password hashing and token issuing.
type Service struct {
	store  storage.AdminStore
	tokens TokenIssuer
	cfg    Config
	now    func() time.Time
	newID  func() string
}

// NewService creates a Service.
func NewService(store storage.AdminStore, tokens TokenIssuer, cfg Config) *Service {
	return &Service{
		store:  store,
		tokens: tokens,
		cfg:    cfg,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Login returns a session token when password matches the stored hash for
// email. An unknown email and a wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if !auth.CheckPassword(admin.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.Email)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	return token, nil
}

// RequestReset checks the recovery code and that email belongs to an admin.
// The code is checked first, so a wrong code never touches the store.
func (s *Service) RequestReset(ctx context.Context, email, code string) (ResetGrant, error) {
	if subtle.ConstantTimeCompare([]byte(code), []byte(s.cfg.RecoveryCode)) != 1 {
		return ResetGrant{}, ErrInvalidCode
	}

	if err := s.requireAdmin(ctx, email); err != nil {
		return ResetGrant{}, err
	}

	if !s.cfg.BindReset {
		return ResetGrant{}, nil
	}

	expiresAt := s.now().Add(ResetTokenTTL)
	token := types.ResetToken{
		ID:        s.newID(),
		Email:     email,
		ExpiresAt: expiresAt.Unix(),
	}
	if err := s.store.CreateResetToken(ctx, token); err != nil {
		return ResetGrant{}, fmt.Errorf("request reset: %w", err)
	}

	slog.Info("reset token issued", slog.String("email", email))

	return ResetGrant{Token: token.ID, ExpiresAt: expiresAt}, nil
}

// ResetPassword stores a new password hash for email. With reset binding
// enabled, resetToken must come from a RequestReset for the same email and
// is spent by this call.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword, resetToken string) error {
	if err := s.requireAdmin(ctx, email); err != nil {
		return err
	}

	// Hash before spending the reset token, so a rejected password leaves
	// the token usable for a retry.
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return fmt.Errorf("reset password: hash: %w", err)
	}

	if s.cfg.BindReset {
		if resetToken == "" {
			return ErrInvalidResetToken
		}
		err := s.store.ConsumeResetToken(ctx, resetToken, email, s.now().Unix())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrInvalidResetToken
			}
			return fmt.Errorf("reset password: %w", err)
		}
	}

	if err := s.store.UpdateAdminPassword(ctx, email, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("reset password: %w", err)
	}

	return nil
}

// EnsureAdmin creates the admin account if it does not exist yet. An
// existing account keeps its current password.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) (created bool, err error) {
	_, err = s.store.GetAdminByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("ensure admin: hash: %w", err)
	}

	if err := s.store.CreateAdmin(ctx, types.Admin{Email: email, PasswordHash: hash}); err != nil {
		// Another instance seeded it first.
		if errors.Is(err, storage.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	return true, nil
}

func (s *Service) requireAdmin(ctx context.Context, email string) error {
	if _, err := s.store.GetAdminByEmail(ctx, email); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUnknownEmail
		}
		return fmt.Errorf("lookup admin: %w", err)
	}
	return nil
}
