package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/carpool"
	"carpool/internal/model"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()

	t.Run("Should create the schema and be re-runnable", func(t *testing.T) {
		db := openDB(t)
		require.NoError(t, Migrate(ctx, db))
		require.NoError(t, Migrate(ctx, db))

		m := db.Migrator()
		assert.True(t, m.HasTable(&model.User{}))
		assert.True(t, m.HasTable(&model.Member{}))
		assert.True(t, m.HasColumn(&model.Entry{}, "UpdateTS"))
	})

	t.Run("Should add and backfill audit columns on an old entries table", func(t *testing.T) {
		db := openDB(t)
		require.NoError(t, db.Exec(`CREATE TABLE entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			day TEXT NOT NULL,
			member_key TEXT NOT NULL,
			role TEXT NOT NULL)`).Error)
		require.NoError(t, db.Exec(`INSERT INTO entries (day, member_key, role) VALUES
			('Mar 01, 2024, 12:00:00 AM', 'CA', 'D'),
			('2024-03-02', 'ER', 'R')`).Error)

		require.NoError(t, Migrate(ctx, db))

		entries, err := New(db).All(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		for _, e := range entries {
			assert.Equal(t, "admin", e.UpdateUser)
			assert.False(t, e.UpdateTS.IsZero())
		}
		assert.Equal(t, "2024-03-01", entries[0].Day.String())
		assert.Equal(t, "Mar 01, 2024, 12:00:00 AM", entries[0].RawDay)
	})

	t.Run("Should read and write a first release database with text timestamps", func(t *testing.T) {
		db := openDB(t)
		require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			day TEXT NOT NULL,
			member_key TEXT NOT NULL,
			role TEXT NOT NULL CHECK(role IN ('D','R','O')),
			update_user TEXT DEFAULT 'admin',
			update_ts   TEXT DEFAULT (CURRENT_TIMESTAMP),
			UNIQUE(day, member_key)
		)`).Error)
		require.NoError(t, db.Exec(`INSERT INTO entries (day, member_key, role, update_ts) VALUES
			('2024-03-01', 'CA', 'D', '2024-03-01 07:30:00'),
			('2024-03-01', 'ER', 'R', '2024-03-01 07:31:00')`).Error)

		require.NoError(t, Migrate(ctx, db))
		s := New(db)

		entries, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.True(t, entries[0].UpdateTS.Equal(time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC)))
		assert.Equal(t, "admin", entries[0].UpdateUser)

		t1 := time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)
		s.WithClock(func() time.Time { return t1 })
		d := carpool.NewDay(2024, time.March, 1)
		_, err = s.UpsertDay(ctx, d, map[string]carpool.Role{"CA": carpool.Rider, "SJ": carpool.Driver}, "bob")
		require.NoError(t, err)

		got, err := s.GetDay(ctx, d)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, carpool.Rider, got["CA"].Role)
		assert.True(t, got["CA"].UpdateTS.Equal(t1))
		assert.True(t, got["SJ"].UpdateTS.Equal(t1))
		assert.True(t, got["ER"].UpdateTS.Equal(time.Date(2024, 3, 1, 7, 31, 0, 0, time.UTC)))
	})
}
