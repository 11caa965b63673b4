// Package auth implements the demo login flow: bcrypt-checked credentials,
// in-memory sessions and forgot-password requests.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bankdash/internal/core"
	"bankdash/internal/ledger"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
)

// ResetNotifier hands a password reset to whatever delivers it: the AMQP
// publisher in production, the in-process worker otherwise.
type ResetNotifier interface {
	NotifyPasswordReset(ctx context.Context, r ledger.PasswordReset) error
}

type Service struct {
	users    ledger.UserStore
	sessions *SessionStore
	notifier ResetNotifier
	logger   *slog.Logger
	now      func() time.Time
	cost     int
}

type Option func(*Service)

func WithNotifier(n ResetNotifier) Option { return func(s *Service) { s.notifier = n } }

func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }

// WithHashCost overrides the bcrypt cost used by EnsureUser.
func WithHashCost(cost int) Option { return func(s *Service) { s.cost = cost } }

func NewService(users ledger.UserStore, sessions *SessionStore, opts ...Option) *Service {
	s := &Service{
		users:    users,
		sessions: sessions,
		logger:   slog.Default(),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) Sessions() *SessionStore { return s.sessions }

// EnsureUser stores the account with password hashed. An existing account
// with the same email keeps its id.
func (s *Service) EnsureUser(ctx context.Context, u core.User, password string) (core.User, error) {
	if err := core.ValidateEmail(u.Email); err != nil {
		return core.User{}, err
	}
	if existing, err := s.users.GetUserByEmail(ctx, u.Email); err == nil {
		u.ID = existing.ID
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	hash, err := HashPassword(password, s.cost)
	if err != nil {
		return core.User{}, err
	}
	if err := s.users.UpsertUser(ctx, core.Account{User: u, PasswordHash: hash}); err != nil {
		return core.User{}, fmt.Errorf("store user: %w", err)
	}
	return u, nil
}

// Login checks the credentials and opens a session. Any mismatch, including
// an unknown email, is ErrInvalidCredentials and creates nothing.
func (s *Service) Login(ctx context.Context, email, password string) (core.User, Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return core.User{}, Session{}, ErrInvalidCredentials
	}
	acct, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, Session{}, fmt.Errorf("lookup user: %w", err)
	}
	if !CheckPassword(password, acct.PasswordHash) {
		return core.User{}, Session{}, ErrInvalidCredentials
	}
	return acct.User, s.sessions.Create(acct.ID), nil
}

// Authenticate resolves a session id to its user.
func (s *Service) Authenticate(ctx context.Context, sessionID string) (core.User, error) {
	if sessionID == "" {
		return core.User{}, ErrSessionNotFound
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return core.User{}, err
	}
	u, err := s.users.GetUserByID(ctx, sess.UserID)
	if errors.Is(err, core.ErrNotFound) {
		s.sessions.Delete(sessionID)
		return core.User{}, ErrSessionNotFound
	}
	return u, err
}

func (s *Service) Logout(sessionID string) {
	if sessionID != "" {
		s.sessions.Delete(sessionID)
	}
}

// RequestPasswordReset validates the address and hands a reset to the
// notifier. The caller sees the same result whether or not an account
// exists for the address.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (ledger.PasswordReset, error) {
	email = strings.TrimSpace(email)
	if err := core.ValidateEmail(email); err != nil {
		return ledger.PasswordReset{}, err
	}

	r := ledger.PasswordReset{
		ID:          uuid.NewString(),
		Email:       strings.ToLower(email),
		Status:      ledger.ResetRequested,
		RequestedAt: s.now().UTC(),
	}
	if acct, err := s.users.GetUserByEmail(ctx, email); err == nil {
		r.UserID = acct.ID
	}

	if s.notifier == nil {
		s.logger.InfoContext(ctx, "Password reset requested without a notifier", "reset_id", r.ID)
		return r, nil
	}
	if err := s.notifier.NotifyPasswordReset(ctx, r); err != nil {
		return ledger.PasswordReset{}, fmt.Errorf("notify password reset: %w", err)
	}
	return r, nil
}

func HashPassword(password string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
