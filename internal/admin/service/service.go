// Package service implements operator authentication: console login with
// JWT issuance, terminal-side credential verification, and first-run
// bootstrap of the default admin account.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cafe-control-plane/internal/admin/domain"
	"cafe-control-plane/internal/audit"
	"cafe-control-plane/internal/security"
)

// ErrInvalidCredentials is returned for any failed login or verification.
// The cause (unknown user, wrong password) is never distinguished.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Default account created when no admin exists. Operators are expected to
// change it immediately.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "ChangeMe#2025!"
)

// AdminRepo is the subset of admin persistence the service needs.
type AdminRepo interface {
	ListActive(ctx context.Context) ([]*domain.AdminUser, error)
	GetActiveByUsername(ctx context.Context, username string) (*domain.AdminUser, error)
	Create(ctx context.Context, a *domain.AdminUser) (int64, error)
}

// Service authenticates operators.
type Service struct {
	repo   AdminRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
	audit  audit.Recorder
	log    *zap.Logger
}

func NewService(repo AdminRepo, hasher *security.Hasher, tokens *security.TokenProvider, rec audit.Recorder, log *zap.Logger) *Service {
	if rec == nil {
		rec = audit.Nop{}
	}
	return &Service{repo: repo, hasher: hasher, tokens: tokens, audit: rec, log: log}
}

// EnsureDefaultAdmin creates the default admin account if no active admin
// exists. Returns true when the account was created.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) (bool, error) {
	existing, err := s.repo.ListActive(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	hash, salt, err := s.hasher.Hash(DefaultAdminPassword)
	if err != nil {
		return false, err
	}
	_, err = s.repo.Create(ctx, &domain.AdminUser{
		Username:     DefaultAdminUsername,
		PasswordHash: hash,
		PasswordSalt: salt,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return false, err
	}

	s.log.Warn("default admin account created; change its password",
		zap.String("username", DefaultAdminUsername),
	)
	s.audit.Record(ctx, audit.Event{
		Actor:  "system",
		Action: audit.ActionAdminSeeded,
		Detail: DefaultAdminUsername,
	})
	return true, nil
}

// Login authenticates the operator and issues a console token.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	user, err := s.repo.GetActiveByUsername(ctx, username)
	if err != nil {
		return "", time.Time{}, err
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash, user.PasswordSalt) {
		s.log.Info("login rejected", zap.String("username", username))
		return "", time.Time{}, ErrInvalidCredentials
	}

	token, expiry, err := s.tokens.Issue(user.Username)
	if err != nil {
		return "", time.Time{}, err
	}
	s.audit.Record(ctx, audit.Event{
		Actor:  user.Username,
		Action: audit.ActionAdminLogin,
	})
	return token, expiry, nil
}

// VerifyAny reports whether the password matches any active admin account.
// Terminals use it for privileged local actions where no username is typed.
// Every stored credential is checked so timing does not reveal which
// account, if any, matched.
func (s *Service) VerifyAny(ctx context.Context, password string) (bool, error) {
	admins, err := s.repo.ListActive(ctx)
	if err != nil {
		return false, err
	}

	matched := false
	for _, a := range admins {
		if s.hasher.Verify(password, a.PasswordHash, a.PasswordSalt) {
			matched = true
		}
	}
	if matched {
		s.audit.Record(ctx, audit.Event{
			Actor:  "terminal",
			Action: audit.ActionAdminVerify,
		})
	}
	return matched, nil
}

// ValidateToken checks a console token and returns the operator username.
func (s *Service) ValidateToken(token string) (string, error) {
	return s.tokens.Validate(token)
}
