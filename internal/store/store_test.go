package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"carpool/internal/carpool"
	"carpool/internal/config"
	"carpool/internal/model"
)

var roster = []carpool.Member{
	{Key: "CA", Name: "Carla", Active: true},
	{Key: "ER", Name: "Eric", Active: true},
	{Key: "SJ", Name: "Sam", Active: true},
}

func openDB(t *testing.T) *gorm.DB {
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
	return db
}

func newStore(t *testing.T) *Store {
	t.Helper()
	db := openDB(t)
	require.NoError(t, Migrate(context.Background(), db))
	s := New(db)
	require.NoError(t, s.Seed(context.Background(), roster, "admin", "hash"))
	return s
}

func clock(ts ...time.Time) func() time.Time {
	i := 0
	return func() time.Time {
		t := ts[i]
		if i < len(ts)-1 {
			i++
		}
		return t
	}
}

func countEntries(t *testing.T, s *Store) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(&model.Entry{}).Count(&n).Error)
	return n
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("Should be idempotent and keep activation changes", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.SetMemberActive(ctx, "SJ", false))
		require.NoError(t, s.Seed(ctx, roster, "admin", "other"))

		members, err := s.Members(ctx)
		require.NoError(t, err)
		require.Len(t, members, 3)
		assert.Equal(t, "CA", members[0].Key)
		assert.False(t, members[2].Active)

		u, err := s.GetUser(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, "hash", u.PasswordHash)
		assert.True(t, u.IsAdmin)
	})

	t.Run("Should report unknown members", func(t *testing.T) {
		s := newStore(t)
		err := s.SetMemberActive(ctx, "ZZ", false)
		assert.ErrorIs(t, err, ErrMemberNotFound)
	})
}

func TestUpsertDay(t *testing.T) {
	ctx := context.Background()
	d := carpool.NewDay(2024, time.March, 1)
	t0 := time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC)

	t.Run("Should be idempotent for the same submission", func(t *testing.T) {
		s := newStore(t)
		roles := map[string]carpool.Role{"CA": carpool.Driver, "ER": carpool.Rider, "SJ": carpool.Off}
		_, err := s.UpsertDay(ctx, d, roles, "admin")
		require.NoError(t, err)
		_, err = s.UpsertDay(ctx, d, roles, "admin")
		require.NoError(t, err)

		assert.EqualValues(t, 3, countEntries(t, s))
		got, err := s.GetDay(ctx, d)
		require.NoError(t, err)
		assert.Equal(t, carpool.Driver, got["CA"].Role)
		assert.Equal(t, carpool.Off, got["SJ"].Role)
	})

	t.Run("Should let the last writer win", func(t *testing.T) {
		s := newStore(t).WithClock(clock(t0, t0.Add(time.Hour)))
		_, err := s.UpsertDay(ctx, d, map[string]carpool.Role{"CA": carpool.Driver}, "alice")
		require.NoError(t, err)
		_, err = s.UpsertDay(ctx, d, map[string]carpool.Role{"CA": carpool.Rider}, "bob")
		require.NoError(t, err)

		got, err := s.GetDay(ctx, d)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, carpool.Rider, got["CA"].Role)
		assert.Equal(t, "bob", got["CA"].UpdateUser)
		assert.True(t, got["CA"].UpdateTS.Equal(t0.Add(time.Hour)))
	})

	t.Run("Should rewrite legacy day text to ISO", func(t *testing.T) {
		s := newStore(t).WithClock(clock(t0))
		require.NoError(t, s.DB().Create(&model.Entry{
			Day: "Mar 01, 2024, 12:00:00 AM", MemberKey: "CA", Role: "R", UpdateUser: "admin",
		}).Error)

		before, err := s.Get(ctx, d)
		require.NoError(t, err)
		require.Len(t, before, 1)
		assert.Equal(t, "Mar 01, 2024, 12:00:00 AM", before[0].RawDay)

		_, err = s.UpsertDay(ctx, d, map[string]carpool.Role{"CA": carpool.Driver}, "admin")
		require.NoError(t, err)

		var rows []model.Entry
		require.NoError(t, s.DB().Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, "2024-03-01", rows[0].Day)
		assert.Equal(t, "D", rows[0].Role)
	})

	t.Run("Should collapse legacy duplicates of one member", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.DB().Create(&model.Entry{Day: "Mar 01, 2024, 12:00:00 AM", MemberKey: "ER", Role: "R"}).Error)
		require.NoError(t, s.DB().Create(&model.Entry{Day: "2024-03-01", MemberKey: "ER", Role: "O"}).Error)

		_, err := s.UpsertDay(ctx, d, map[string]carpool.Role{"ER": carpool.Driver}, "admin")
		require.NoError(t, err)
		assert.EqualValues(t, 1, countEntries(t, s))
	})

	t.Run("Should write nothing when a statement fails mid transaction", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpsertDay(ctx, d, map[string]carpool.Role{"CA": carpool.Rider}, "admin")
		require.NoError(t, err)

		err = s.Upsert(ctx, d, []carpool.Entry{
			{Day: d, MemberKey: "CA", Role: carpool.Driver, UpdateUser: "bob", UpdateTS: t0},
			{Day: d, MemberKey: "ER", Role: carpool.Role("X"), UpdateUser: "bob", UpdateTS: t0},
		})
		require.Error(t, err)

		got, err := s.GetDay(ctx, d)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, carpool.Rider, got["CA"].Role)
		assert.Equal(t, "admin", got["CA"].UpdateUser)
	})

	t.Run("Should not touch other days", func(t *testing.T) {
		s := newStore(t)
		_, err := s.UpsertDay(ctx, d.AddDays(1), map[string]carpool.Role{"CA": carpool.Rider}, "admin")
		require.NoError(t, err)
		_, err = s.UpsertDay(ctx, d, map[string]carpool.Role{"CA": carpool.Driver}, "admin")
		require.NoError(t, err)

		all, err := s.All(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestListEntries(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	base := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	s.WithClock(clock(base, base.Add(time.Minute), base.Add(2*time.Minute)))

	for i, roles := range []map[string]carpool.Role{
		{"CA": carpool.Driver, "ER": carpool.Rider},
		{"ER": carpool.Driver, "CA": carpool.Rider},
		{"CA": carpool.Driver, "SJ": carpool.Off},
	} {
		_, err := s.UpsertDay(ctx, carpool.NewDay(2024, time.March, i+1), roles, "admin")
		require.NoError(t, err)
	}

	t.Run("Should filter by role and member in SQL", func(t *testing.T) {
		got, err := s.ListEntries(ctx, carpool.AuditFilter{MemberKey: "CA", Role: carpool.Driver})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "2024-03-03", got[0].Day.String())
		assert.Equal(t, "2024-03-01", got[1].Day.String())
	})

	t.Run("Should apply the date range", func(t *testing.T) {
		got, err := s.ListEntries(ctx, carpool.AuditFilter{
			Start: carpool.NewDay(2024, time.March, 2),
			End:   carpool.NewDay(2024, time.March, 2),
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}

func TestUnreadableDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	s := newStore(t).WithClock(func() time.Time { return now })
	require.NoError(t, s.DB().Create(&model.Entry{Day: "garbage", MemberKey: "CA", Role: "D", UpdateUser: "admin"}).Error)

	t.Run("Should list the row under today and keep the stored text", func(t *testing.T) {
		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "2024-03-15", all[0].Day.String())
		assert.Equal(t, "garbage", all[0].RawDay)

		audit, err := s.ListEntries(ctx, carpool.AuditFilter{})
		require.NoError(t, err)
		require.Len(t, audit, 1)
		assert.Equal(t, "garbage", audit[0].RawDay)
	})

	t.Run("Should leave the row alone when today is saved", func(t *testing.T) {
		_, err := s.UpsertDay(ctx, carpool.NewDay(2024, time.March, 15), map[string]carpool.Role{"CA": carpool.Rider}, "admin")
		require.NoError(t, err)
		assert.EqualValues(t, 2, countEntries(t, s))
	})
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	require.NoError(t, s.SaveUser(ctx, &model.User{Username: "eric", PasswordHash: "h1"}))
	require.NoError(t, s.SaveUser(ctx, &model.User{Username: "eric", PasswordHash: "h2", IsAdmin: true}))

	u, err := s.GetUser(ctx, "eric")
	require.NoError(t, err)
	assert.Equal(t, "h2", u.PasswordHash)
	assert.True(t, u.IsAdmin)

	require.NoError(t, s.ResetUser(ctx, "eric", "h3", false))
	u, err = s.GetUser(ctx, "eric")
	require.NoError(t, err)
	assert.Equal(t, "h3", u.PasswordHash)
	assert.False(t, u.IsAdmin)

	require.NoError(t, s.UpdatePassword(ctx, "eric", "h4"))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, s.UpdatePassword(ctx, "nobody", "x"), ErrUserNotFound)
}
