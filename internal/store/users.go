package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carpool/internal/model"
)

func (s *Store) GetUser(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.WithContext(ctx).Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SaveUser creates the user or replaces the hash and admin flag of an
// existing one with the same username.
func (s *Store) SaveUser(ctx context.Context, u *model.User) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "is_admin"}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, username, hash string) error {
	return s.updateUser(ctx, username, map[string]any{"password_hash": hash})
}

func (s *Store) ResetUser(ctx context.Context, username, hash string, isAdmin bool) error {
	return s.updateUser(ctx, username, map[string]any{"password_hash": hash, "is_admin": isAdmin})
}

func (s *Store) updateUser(ctx context.Context, username string, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&model.User{}).Where("username = ?", username).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return nil
}
