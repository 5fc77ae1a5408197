package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopmindai/voicematch/internal/matchstate"
)

func TestRowRoundTripPreservesAskingState(t *testing.T) {
	want := matchstate.NewAsking(42, matchstate.AskingParams{
		Name: "ada", Sex: matchstate.Female, Opinion: matchstate.Pro,
		SearchingUntil: 100, NextRefresh: 50,
		AskedUid: 7, AskingUntil: 80, WaitedBy: 9, HasWaitedBy: true,
	})

	got := fromRow(toRow(want))
	assert.Equal(t, want, got)
}

func TestRowRoundTripPreservesInactiveWithoutSurvey(t *testing.T) {
	want := matchstate.NewInactive(1, "bob", matchstate.Male, matchstate.Con, 0, false)
	got := fromRow(toRow(want))
	assert.Equal(t, want, got)
}
