package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

func TestParseUid(t *testing.T) {
	require.Equal(t, matchstate.Uid(42), parseUid("42"))
	require.Equal(t, matchstate.Uid(0), parseUid("not-a-number"))
}

func TestDispatchDrivesRealStartTransition(t *testing.T) {
	ctx := context.Background()
	eng, err := matchtxn.NewEngine(ctx, memStore{})
	require.NoError(t, err)

	dispatch(ctx, eng, clock.Timestamp(0), matcher.StartCommand{Uid: 1, DisplayName: "Ada"})

	tx, err := eng.Begin()
	require.NoError(t, err)
	state := tx.Get(1)
	require.Equal(t, matchstate.WaitingForOpinion, state.Tag)
}
