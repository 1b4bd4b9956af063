package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/storage"
)

// AccountService owns sign-up, sign-in and the session lifecycle.
type AccountService struct {
	store    storage.AccountStore
	lifetime time.Duration
	Clock    Clock
}

func NewAccountService(store storage.AccountStore, lifetime time.Duration) *AccountService {
	if lifetime <= 0 {
		lifetime = auth.DefaultLifetime
	}
	return &AccountService{store: store, lifetime: lifetime}
}

// Lifetime is the session lifetime used for new and renewed sessions.
func (s *AccountService) Lifetime() time.Duration {
	return s.lifetime
}

// SignUp creates the user with default settings and categories. The returned
// user carries the confirmation token.
func (s *AccountService) SignUp(ctx context.Context, in core.SignUpInput) (core.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, err
	}
	token, err := auth.NewToken()
	if err != nil {
		return core.User{}, err
	}

	u := core.User{
		ID:           core.NewID(),
		Email:        core.NormalizeEmail(in.Email),
		PasswordHash: hash,
		ConfirmToken: token,
		CreatedAt:    s.Clock.now(),
	}
	err = s.store.CreateAccount(ctx, u, core.DefaultSettings(u.ID), core.DefaultCategories(u.ID))
	if errors.Is(err, storage.ErrDuplicate) {
		return core.User{}, ErrEmailTaken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("sign up: %w", err)
	}

	slog.InfoContext(ctx, "User signed up", "user_id", u.ID)
	return u, nil
}

// SignIn checks the credentials and opens a session.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	u, err := s.store.GetUserByEmail(ctx, core.NormalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return core.Session{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return core.Session{}, fmt.Errorf("sign in: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		slog.WarnContext(ctx, "Failed sign-in attempt", "user_id", u.ID)
		return core.Session{}, err
	}
	return s.openSession(ctx, u.ID)
}

func (s *AccountService) openSession(ctx context.Context, userID string) (core.Session, error) {
	token, err := auth.NewToken()
	if err != nil {
		return core.Session{}, err
	}
	now := s.Clock.now()
	session := core.Session{Token: token, UserID: userID, ExpiresAt: now.Add(s.lifetime), CreatedAt: now}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return core.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// SignOut deletes the session. Unknown tokens are ignored.
func (s *AccountService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	err := s.store.DeleteSession(ctx, token)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// ResolveSession implements auth.SessionResolver with rolling renewal.
func (s *AccountService) ResolveSession(ctx context.Context, token string) (core.Session, bool, error) {
	session, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Session{}, false, auth.ErrSessionExpired
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("load session: %w", err)
	}

	now := s.Clock.now()
	if !session.ExpiresAt.After(now) {
		if err := s.store.DeleteSession(ctx, token); err != nil && !errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return core.Session{}, false, auth.ErrSessionExpired
	}

	if !auth.NeedsRenewal(session, now, s.lifetime) {
		return session, false, nil
	}
	expires := now.Add(s.lifetime)
	if err := s.store.ExtendSession(ctx, token, expires); err != nil {
		// Keep serving on the current expiry.
		slog.WarnContext(ctx, "Failed to renew session", "user_id", session.UserID, "error", err)
		return session, false, nil
	}
	session.ExpiresAt = expires
	return session, true, nil
}

// Confirm marks the owner of token as confirmed.
func (s *AccountService) Confirm(ctx context.Context, token string) (core.User, error) {
	if strings.TrimSpace(token) == "" {
		return core.User{}, ErrInvalidToken
	}
	u, err := s.store.ConfirmUser(ctx, token, s.Clock.now())
	if errors.Is(err, storage.ErrNotFound) {
		return core.User{}, ErrInvalidToken
	}
	if err != nil {
		return core.User{}, fmt.Errorf("confirm user: %w", err)
	}
	slog.InfoContext(ctx, "Email confirmed", "user_id", u.ID)
	return u, nil
}

// CreateConfirmedUser signs a user up and confirms them immediately.
func (s *AccountService) CreateConfirmedUser(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.SignUp(ctx, core.SignUpInput{Email: email, Password: password, ConfirmPassword: password})
	if err != nil {
		return core.User{}, err
	}
	return s.Confirm(ctx, u.ConfirmToken)
}

func (s *AccountService) User(ctx context.Context, id string) (core.User, error) {
	return s.store.GetUser(ctx, id)
}

// CleanupSessions removes every expired session.
func (s *AccountService) CleanupSessions(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredSessions(ctx, s.Clock.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return n, nil
}
