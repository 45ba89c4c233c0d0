package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"carpool/internal/carpool"
	"carpool/internal/config"
	"carpool/internal/store"
)

var roster = []carpool.Member{
	{Key: "CA", Name: "Carla", Active: true},
	{Key: "ER", Name: "Eric", Active: true},
	{Key: "SJ", Name: "Sam", Active: true},
}

// fixedNow is 2024-03-15 09:00 UTC.
var fixedNow = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "carpool.db")
	db, err := cfg.OpenGormDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx, db))
	s := store.New(db).WithClock(func() time.Time { return fixedNow })
	require.NoError(t, s.Seed(ctx, roster, "", ""))
	return s
}

func newSchedule(t *testing.T, st *store.Store, opts ScheduleOptions) *ScheduleService {
	t.Helper()
	cache, err := NewCreditCache(16, nil)
	require.NoError(t, err)
	opts.Location = time.UTC
	return NewScheduleService(st, cache, opts).WithClock(func() time.Time { return fixedNow })
}

func mustSave(t *testing.T, s *ScheduleService, day string, roles map[string]string) {
	t.Helper()
	_, err := s.SaveDay(context.Background(), day, roles, "admin", true)
	require.NoError(t, err)
}
