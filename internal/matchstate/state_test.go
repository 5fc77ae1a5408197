package matchstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

func TestSchedDerivation(t *testing.T) {
	inactiveNoSurvey := matchstate.NewInactive(1, "a", matchstate.Male, matchstate.Pro, 0, false)
	_, ok := inactiveNoSurvey.Sched()
	assert.False(t, ok)

	inactiveSurvey := matchstate.NewInactive(1, "a", matchstate.Male, matchstate.Pro, 70, true)
	ts, ok := inactiveSurvey.Sched()
	assert.True(t, ok)
	assert.Equal(t, clock.Timestamp(70), ts)

	asking := matchstate.NewAsking(1, matchstate.AskingParams{NextRefresh: 42, SearchingUntil: 100})
	ts, ok = asking.Sched()
	assert.True(t, ok)
	assert.Equal(t, clock.Timestamp(42), ts)

	asked := matchstate.NewAsked(1, "a", matchstate.Male, matchstate.Pro, 55, 2)
	ts, ok = asked.Sched()
	assert.True(t, ok)
	assert.Equal(t, clock.Timestamp(55), ts)

	active := matchstate.NewActive(1, "a", matchstate.Male, matchstate.Pro, 10)
	_, ok = active.Sched()
	assert.False(t, ok)
}

func TestPriorityOrdering(t *testing.T) {
	waiting := matchstate.NewWaiting(1, matchstate.WaitingParams{Opinion: matchstate.Con, SearchingUntil: 30})
	class, tb, ok := waiting.Priority()
	assert.True(t, ok)
	assert.Equal(t, int64(30), tb)

	askingNotReserved := matchstate.NewAsking(2, matchstate.AskingParams{Opinion: matchstate.Con, AskingUntil: 15})
	askingClass, _, ok := askingNotReserved.Priority()
	assert.True(t, ok)
	assert.Greater(t, int(askingClass), int(class))

	askingReserved := matchstate.NewAsking(3, matchstate.AskingParams{Opinion: matchstate.Con, AskingUntil: 15, WaitedBy: 9, HasWaitedBy: true})
	_, _, ok = askingReserved.Priority()
	assert.False(t, ok)

	active := matchstate.NewActive(4, "x", matchstate.Male, matchstate.Con, 5)
	activeClass, activeTb, ok := active.Priority()
	assert.True(t, ok)
	assert.Equal(t, int64(-5), activeTb)
	assert.Greater(t, int(activeClass), int(askingClass))
}

func TestDisplayNameTruncation(t *testing.T) {
	long := ""
	for i := 0; i < 100; i++ {
		long += "x"
	}
	s := matchstate.NewWaitingForOpinion(1, long)
	assert.Len(t, []rune(s.DisplayName), matchstate.MaxDisplayNameRunes)
}
