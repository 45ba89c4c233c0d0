package carpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggest(t *testing.T) {
	today := day(15)
	zero := map[string]int{"CA": 0, "ER": 0, "SJ": 0}

	t.Run("Should report no carpool when nothing is scheduled", func(t *testing.T) {
		got := Suggest(nil, zero, trio)
		assert.Equal(t, Suggestion{NoCarpool: true}, got)
	})

	t.Run("Should report no carpool when everyone is off", func(t *testing.T) {
		entries := []Entry{entry(today, "CA", Off), entry(today, "ER", Off), entry(today, "SJ", Off)}
		got := Suggest(entries, zero, trio)
		assert.True(t, got.NoCarpool)
		assert.Empty(t, got.SuggestedMember)
		assert.False(t, got.IsExplicit)
	})

	t.Run("Should confirm the single scheduled driver", func(t *testing.T) {
		entries := []Entry{entry(today, "CA", Driver), entry(today, "ER", Rider), entry(today, "SJ", Off)}
		credits := map[string]int{"CA": 10, "ER": -3, "SJ": -9}
		got := Suggest(entries, credits, trio)
		assert.Equal(t, Suggestion{SuggestedMember: "CA", IsExplicit: true}, got)
	})

	t.Run("Should infer the lowest credit member when nobody drives", func(t *testing.T) {
		var history []Entry
		for d := 1; d <= 5; d++ {
			history = append(history, entry(day(d), "CA", Driver), entry(day(d), "ER", Rider))
		}
		members := trio[:2]
		credits := ComputeCredits(history, today, members, CreditOptions{})
		entries := []Entry{entry(today, "CA", Rider), entry(today, "ER", Rider)}

		got := Suggest(entries, credits, members)
		assert.Equal(t, Suggestion{SuggestedMember: "CA"}, got)
	})

	t.Run("Should skip members marked off and break ties by key", func(t *testing.T) {
		entries := []Entry{entry(today, "CA", Off), entry(today, "ER", Rider), entry(today, "SJ", Rider)}
		credits := map[string]int{"CA": -5, "ER": 1, "SJ": 1}
		got := Suggest(entries, credits, trio)
		assert.Equal(t, Suggestion{SuggestedMember: "ER"}, got)
	})

	t.Run("Should infer when two drivers are scheduled", func(t *testing.T) {
		entries := []Entry{entry(today, "CA", Driver), entry(today, "ER", Driver), entry(today, "SJ", Rider)}
		credits := map[string]int{"CA": 2, "ER": 0, "SJ": 4}
		got := Suggest(entries, credits, trio)
		assert.Equal(t, Suggestion{SuggestedMember: "ER"}, got)
	})

	t.Run("Should ignore inactive members", func(t *testing.T) {
		members := []Member{
			{Key: "CA", Active: false},
			{Key: "ER", Active: true},
			{Key: "SJ", Active: true},
		}
		entries := []Entry{entry(today, "CA", Driver), entry(today, "ER", Rider), entry(today, "SJ", Rider)}
		credits := map[string]int{"CA": -9, "ER": 3, "SJ": 2}
		got := Suggest(entries, credits, members)
		assert.Equal(t, Suggestion{SuggestedMember: "SJ"}, got)
	})

	t.Run("Should treat unassigned active members as candidates", func(t *testing.T) {
		entries := []Entry{entry(today, "CA", Off), entry(today, "ER", Off)}
		got := Suggest(entries, zero, trio)
		assert.Equal(t, Suggestion{SuggestedMember: "SJ"}, got)
	})
}
