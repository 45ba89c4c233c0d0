package service

import (
	"context"
	"log/slog"

	"carpool/internal/carpool"
)

type RosterStore interface {
	Members(ctx context.Context) ([]carpool.Member, error)
	SetMemberActive(ctx context.Context, key string, active bool) error
}

// MemberSyncer receives the full roster after it changes.
type MemberSyncer interface {
	SyncMembers(ctx context.Context, members []carpool.Member)
}

type RosterService struct {
	store  RosterStore
	syncer MemberSyncer
}

func NewRosterService(store RosterStore) *RosterService { return &RosterService{store: store} }

func (s *RosterService) WithSyncer(m MemberSyncer) *RosterService {
	s.syncer = m
	return s
}

func (s *RosterService) Members(ctx context.Context) ([]carpool.Member, error) {
	return s.store.Members(ctx)
}

// SetActive toggles a member. Inactive members keep their history and
// credit but drop out of suggestions and the day form.
func (s *RosterService) SetActive(ctx context.Context, key string, active bool) ([]carpool.Member, error) {
	if err := s.store.SetMemberActive(ctx, key, active); err != nil {
		return nil, err
	}
	slog.Info("roster.member_updated", "key", key, "active", active)
	members, err := s.store.Members(ctx)
	if err != nil {
		return nil, err
	}
	s.Publish(ctx, members)
	return members, nil
}

// Publish hands the roster to the syncer without waiting for it.
func (s *RosterService) Publish(ctx context.Context, members []carpool.Member) {
	if s.syncer != nil {
		go s.syncer.SyncMembers(context.WithoutCancel(ctx), members)
	}
}
