package matchindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/matchindex"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

func TestTopPicksWaitingOverAskingOverActive(t *testing.T) {
	idx := matchindex.New()

	idx.Set(matchstate.NewActive(1, "a", matchstate.Male, matchstate.Con, 0))
	idx.Set(matchstate.NewAsking(2, matchstate.AskingParams{Opinion: matchstate.Con, AskingUntil: 15}))
	idx.Set(matchstate.NewWaiting(3, matchstate.WaitingParams{Opinion: matchstate.Con, SearchingUntil: 30}))

	top, ok := idx.Top(matchstate.Pro) // a Pro-holding searcher looks among Con candidates
	require.True(t, ok)
	assert.Equal(t, matchstate.Uid(3), top, "Waiting beats Asking beats Active")
}

func TestReservedAskingIsIneligible(t *testing.T) {
	idx := matchindex.New()
	idx.Set(matchstate.NewAsking(1, matchstate.AskingParams{Opinion: matchstate.Con, AskingUntil: 15, WaitedBy: 9, HasWaitedBy: true}))

	_, ok := idx.Top(matchstate.Pro)
	assert.False(t, ok)
}

func TestSetIsIdempotent(t *testing.T) {
	idx := matchindex.New()
	s := matchstate.NewWaiting(1, matchstate.WaitingParams{Opinion: matchstate.Con, SearchingUntil: 30, NextRefresh: 5})
	idx.Set(s)
	idx.Set(s)

	top, ok := idx.Top(matchstate.Pro)
	require.True(t, ok)
	assert.Equal(t, matchstate.Uid(1), top)
}

func TestRebuildMatchesIncremental(t *testing.T) {
	states := map[matchstate.Uid]matchstate.UserState{
		1: matchstate.NewWaiting(1, matchstate.WaitingParams{Opinion: matchstate.Con, SearchingUntil: 30, NextRefresh: 5}),
		2: matchstate.NewAsking(2, matchstate.AskingParams{Opinion: matchstate.Pro, AskingUntil: 15, NextRefresh: 15, SearchingUntil: 40}),
		3: matchstate.NewInactive(3, "c", matchstate.Female, matchstate.Con, 70, true),
	}

	incremental := matchindex.New()
	for _, s := range states {
		incremental.Set(s)
	}

	rebuilt := matchindex.Rebuild(states)

	for _, opinion := range []matchstate.Opinion{matchstate.Pro, matchstate.Con} {
		incTop, incOK := incremental.Top(opinion)
		rebTop, rebOK := rebuilt.Top(opinion)
		assert.Equal(t, incOK, rebOK)
		if incOK {
			assert.Equal(t, incTop, rebTop)
		}
	}

	incUid, incTs, incOK := incremental.FirstScheduled()
	rebUid, rebTs, rebOK := rebuilt.FirstScheduled()
	assert.Equal(t, incOK, rebOK)
	assert.Equal(t, incUid, rebUid)
	assert.Equal(t, incTs, rebTs)
}

func TestRemoveClearsBothIndices(t *testing.T) {
	idx := matchindex.New()
	idx.Set(matchstate.NewWaiting(1, matchstate.WaitingParams{Opinion: matchstate.Con, SearchingUntil: 30, NextRefresh: 5}))
	idx.Remove(1)

	_, ok := idx.Top(matchstate.Pro)
	assert.False(t, ok)
	_, _, ok = idx.FirstScheduled()
	assert.False(t, ok)
}
