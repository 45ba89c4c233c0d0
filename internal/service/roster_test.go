package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carpool/internal/carpool"
	"carpool/internal/store"
)

type memberRecorder chan []carpool.Member

func (r memberRecorder) SyncMembers(_ context.Context, m []carpool.Member) { r <- m }

func TestRosterService(t *testing.T) {
	ctx := context.Background()

	t.Run("Should deactivate and publish the roster", func(t *testing.T) {
		rec := make(memberRecorder, 1)
		s := NewRosterService(newTestStore(t)).WithSyncer(rec)

		members, err := s.SetActive(ctx, "SJ", false)
		require.NoError(t, err)
		assert.False(t, members[2].Active)

		published := <-rec
		assert.Len(t, published, 3)
		assert.False(t, published[2].Active)
	})

	t.Run("Should report unknown keys", func(t *testing.T) {
		s := NewRosterService(newTestStore(t))
		_, err := s.SetActive(ctx, "ZZ", true)
		assert.ErrorIs(t, err, store.ErrMemberNotFound)
	})
}
