package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/model"
)

func TestDiagService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should describe an empty database", func(t *testing.T) {
		st := newTestStore(t)
		r, err := NewDiagService(st, "sqlite", ":memory:").Report(ctx)
		require.NoError(t, err)
		assert.False(t, r.Exists)
		assert.Zero(t, r.Entries)
		assert.Empty(t, r.MinDay)
	})

	t.Run("Should summarise days, years and legacy rows", func(t *testing.T) {
		st := newTestStore(t)
		s := newSchedule(t, st, ScheduleOptions{})
		mustSave(t, s, "2023-12-29", map[string]string{"CA": "D", "ER": "R"})
		mustSave(t, s, "2024-01-02", map[string]string{"CA": "R", "ER": "D"})
		require.NoError(t, st.DB().Create(&model.Entry{Day: "Jan 03, 2024, 12:00:00 AM", MemberKey: "SJ", Role: "O"}).Error)

		r, err := NewDiagService(st, "sqlite", "").Report(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, r.Entries)
		assert.Equal(t, 3, r.DistinctDays)
		assert.Equal(t, 1, r.LegacyDays)
		assert.Equal(t, "2023-12-29", r.MinDay)
		assert.Equal(t, "2024-01-03", r.MaxDay)
		assert.Equal(t, []model.YearCount{{Year: 2023, Days: 1}, {Year: 2024, Days: 2}}, r.PerYear)
		require.Len(t, r.Newest, 3)
		assert.Equal(t, "2024-01-03", r.Newest[0].Day.String())
		assert.Equal(t, "2023-12-29", r.Oldest[0].Day.String())
	})
}
