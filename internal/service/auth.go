package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"carpool/internal/model"
	"carpool/internal/store"
)

var (
	ErrBadCredentials   = errors.New("wrong username or password")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrEmptyPassword    = errors.New("password must not be empty")
	ErrEmptyUsername    = errors.New("username must not be empty")
)

type UserStore interface {
	GetUser(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SaveUser(ctx context.Context, u *model.User) error
	UpdatePassword(ctx context.Context, username, hash string) error
	ResetUser(ctx context.Context, username, hash string, isAdmin bool) error
}

type AuthService struct{ users UserStore }

func NewAuthService(users UserStore) *AuthService { return &AuthService{users: users} }

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// Login checks the password. Accounts still carrying an unsalted SHA-256
// hex digest are moved to bcrypt on their first successful login.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if isLegacyHash(u.PasswordHash) {
		if !legacyMatch(u.PasswordHash, password) {
			return nil, ErrBadCredentials
		}
		hash, err := HashPassword(password)
		if err != nil {
			return nil, err
		}
		if err := s.users.UpdatePassword(ctx, username, hash); err != nil {
			slog.Warn("auth.upgrade_failed", "username", username, "err", err)
		} else {
			u.PasswordHash = hash
			slog.Info("auth.hash_upgraded", "username", username)
		}
		return u, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}

func (s *AuthService) Me(ctx context.Context, username string) (*model.User, error) {
	return s.users.GetUser(ctx, username)
}

func (s *AuthService) ChangePassword(ctx context.Context, username, password, confirm string) error {
	if password != confirm {
		return ErrPasswordMismatch
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, username, hash)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.users.ListUsers(ctx)
}

// SaveUser adds a user or replaces an existing one's password and role.
func (s *AuthService) SaveUser(ctx context.Context, username, password string, isAdmin bool) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrEmptyUsername
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{Username: username, PasswordHash: hash, IsAdmin: isAdmin}
	if err := s.users.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	slog.Info("auth.user_saved", "username", username, "admin", isAdmin)
	return u, nil
}

func (s *AuthService) ResetUser(ctx context.Context, username, password string, isAdmin bool) error {
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.ResetUser(ctx, username, hash, isAdmin); err != nil {
		return err
	}
	slog.Info("auth.user_reset", "username", username, "admin", isAdmin)
	return nil
}

func isLegacyHash(h string) bool {
	if len(h) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(h)
	return err == nil
}

func legacyMatch(stored, password string) bool {
	sum := sha256.Sum256([]byte(password))
	got := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(got)) == 1
}
