package matchtxn_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/matchstate"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

type fakeStore struct {
	mu      sync.Mutex
	loaded  map[matchstate.Uid]matchstate.UserState
	commits int
	fail    bool
}

func (f *fakeStore) LoadAll(ctx context.Context) (map[matchstate.Uid]matchstate.UserState, error) {
	return f.loaded, nil
}

func (f *fakeStore) CommitBatch(ctx context.Context, batch []matchstate.UserState, logs []matchtxn.LogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	if f.fail {
		return assert.AnError
	}
	return nil
}

func TestGetReturnsVirtualInitial(t *testing.T) {
	store := &fakeStore{loaded: map[matchstate.Uid]matchstate.UserState{}}
	eng, err := matchtxn.NewEngine(context.Background(), store)
	require.NoError(t, err)

	tx, err := eng.Begin()
	require.NoError(t, err)

	s := tx.Get(42)
	assert.Equal(t, matchstate.Initial, s.Tag)
	assert.Equal(t, matchstate.Uid(42), s.Uid)

	require.NoError(t, tx.Commit(context.Background()))
}

func TestOwnWritesVisibleWithinTransaction(t *testing.T) {
	store := &fakeStore{loaded: map[matchstate.Uid]matchstate.UserState{}}
	eng, err := matchtxn.NewEngine(context.Background(), store)
	require.NoError(t, err)

	tx, err := eng.Begin()
	require.NoError(t, err)

	tx.Set(matchstate.NewActive(1, "a", matchstate.Male, matchstate.Con, 5))
	got := tx.Get(1)
	assert.Equal(t, matchstate.Active, got.Tag)

	candidate, ok := tx.SearchForUser(matchstate.Pro)
	require.True(t, ok)
	assert.Equal(t, matchstate.Uid(1), candidate.Uid)

	require.NoError(t, tx.Commit(context.Background()))
}

func TestOnlyOneTransactionOpenAtATime(t *testing.T) {
	store := &fakeStore{loaded: map[matchstate.Uid]matchstate.UserState{}}
	eng, err := matchtxn.NewEngine(context.Background(), store)
	require.NoError(t, err)

	_, err = eng.Begin()
	require.NoError(t, err)

	_, err = eng.Begin()
	assert.ErrorIs(t, err, matchtxn.ErrTransactionAlreadyOpen)
}

func TestRunCommitsEvenOnPanic(t *testing.T) {
	store := &fakeStore{loaded: map[matchstate.Uid]matchstate.UserState{}}
	eng, err := matchtxn.NewEngine(context.Background(), store)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_ = eng.Run(context.Background(), func(tx *matchtxn.Transaction) error {
			tx.Set(matchstate.NewActive(9, "a", matchstate.Male, matchstate.Con, 0))
			panic("boom")
		})
	})

	tx, err := eng.Begin()
	require.NoError(t, err)
	s := tx.Get(9)
	assert.Equal(t, matchstate.Active, s.Tag, "in-memory write applied before panic must survive")
	require.NoError(t, tx.Commit(context.Background()))
}
