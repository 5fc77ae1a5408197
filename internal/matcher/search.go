package matcher

import (
	"github.com/shopmindai/voicematch/internal/assert"
	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matchstate"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

// searchForMatch implements spec.md §4.4.2. It is used by
// Inactive+IM_AVAILABLE_NOW, Active+IM_AVAILABLE_NOW, and every recursive
// re-search that follows a reservation release.
func searchForMatch(tx *matchtxn.Transaction, ts clock.Timestamp, self matchstate.UserState) (found bool, msgs []OutboundMessage) {
	var searchingUntil, nextRefresh clock.Timestamp
	if self.IsSearching() {
		searchingUntil = self.SearchingUntil
		nextRefresh = self.NextRefresh
	} else {
		searchingUntil = ts.Add(SearchDuration)
		nextRefresh = ts.Add(SearchUpdateInterval)
	}

	other, ok := tx.SearchForUser(self.Opinion)
	if !ok {
		tx.Set(waitingState(self, searchingUntil, nextRefresh, 0, false))
		return false, nil
	}

	switch other.Tag {
	case matchstate.Waiting:
		if other.HasWaitingFor {
			breakReservation(tx, other.WaitingFor)
		}
		return true, completeMatch(tx, ts, self, other)

	case matchstate.Asking:
		if other.AskingUntil <= searchingUntil {
			tx.Set(waitingState(self, searchingUntil, nextRefresh, other.Uid, true))
			reserved := other
			reserved.WaitedBy = self.Uid
			reserved.HasWaitedBy = true
			tx.Set(reserved)
		} else {
			tx.Set(waitingState(self, searchingUntil, nextRefresh, 0, false))
		}
		return false, nil

	case matchstate.Active:
		askingUntil := ts.Add(AskingDuration)
		if askingUntil <= searchingUntil {
			tx.Set(matchstate.NewAsking(self.Uid, matchstate.AskingParams{
				Name: self.Name, Sex: self.Sex, Opinion: self.Opinion,
				SearchingUntil: searchingUntil, NextRefresh: nextRefresh,
				AskedUid: other.Uid, AskingUntil: askingUntil,
			}))
			tx.Set(matchstate.NewAsked(other.Uid, other.Name, other.Sex, other.Opinion, askingUntil, self.Uid))
			return false, []OutboundMessage{{Uid: other.Uid, Kind: KindAreYouAvailable, OtherSex: self.Sex}}
		}
		tx.Set(waitingState(self, searchingUntil, nextRefresh, 0, false))
		return false, nil

	default:
		// tx.SearchForUser only ever returns Waiting, Asking, or Active.
		tx.Set(waitingState(self, searchingUntil, nextRefresh, 0, false))
		return false, nil
	}
}

func waitingState(self matchstate.UserState, searchingUntil, nextRefresh clock.Timestamp, waitingFor matchstate.Uid, hasWaitingFor bool) matchstate.UserState {
	return matchstate.NewWaiting(self.Uid, matchstate.WaitingParams{
		Name: self.Name, Sex: self.Sex, Opinion: self.Opinion,
		SearchingUntil: searchingUntil, NextRefresh: nextRefresh,
		WaitingFor: waitingFor, HasWaitingFor: hasWaitingFor,
	})
}

// breakReservation clears waitedBy on the Asking user at askingUid.
func breakReservation(tx *matchtxn.Transaction, askingUid matchstate.Uid) {
	asking := tx.Get(askingUid)
	asking.HasWaitedBy = false
	tx.Set(asking)
}

// completeMatch moves both a and b to Inactive with a shared survey
// timestamp and returns the two FoundPartner messages, each carrying the
// other party's identity.
func completeMatch(tx *matchtxn.Transaction, ts clock.Timestamp, a, b matchstate.UserState) []OutboundMessage {
	surveyTs := ts.Add(SurveyDuration)
	tx.Set(matchstate.NewInactive(a.Uid, a.Name, a.Sex, a.Opinion, surveyTs, true))
	tx.Set(matchstate.NewInactive(b.Uid, b.Name, b.Sex, b.Opinion, surveyTs, true))
	tx.Log(ts, "matched", map[string]any{"a": a.Uid, "b": b.Uid})

	return []OutboundMessage{
		{Uid: a.Uid, Kind: KindFoundPartner, OtherUid: b.Uid, OtherName: b.Name, OtherSex: b.Sex},
		{Uid: b.Uid, Kind: KindFoundPartner, OtherUid: a.Uid, OtherName: a.Name, OtherSex: a.Sex},
	}
}

// handleAnswerAvailable implements spec.md §4.4.3.
func handleAnswerAvailable(tx *matchtxn.Transaction, ts clock.Timestamp, self matchstate.UserState) []OutboundMessage {
	other := tx.Get(self.AskedBy)
	assert.Truef(other.Tag == matchstate.Asking, "handleAnswerAvailable: askedBy %d is %s, want Asking", other.Uid, other.Tag)

	msgs := completeMatch(tx, ts, self, other)

	if other.HasWaitedBy {
		waiting := tx.Get(other.WaitedBy)
		assert.Truef(waiting.Tag == matchstate.Waiting, "handleAnswerAvailable: waitedBy %d is %s, want Waiting", waiting.Uid, waiting.Tag)
		tx.Set(waitingState(waiting, waiting.SearchingUntil, waiting.NextRefresh, 0, false))
		_, more := searchForMatch(tx, ts, tx.Get(waiting.Uid))
		msgs = append(msgs, more...)
	}

	return msgs
}

// handleAskedRelease implements spec.md §4.4.4: Asked+ANSWER_UNAVAILABLE
// and Asked+SCHED (timeout) differ only in which message the released
// user receives.
func handleAskedRelease(tx *matchtxn.Transaction, ts clock.Timestamp, self matchstate.UserState, kind MessageKind) []OutboundMessage {
	tx.Set(matchstate.NewInactive(self.Uid, self.Name, self.Sex, self.Opinion, 0, false))
	msgs := []OutboundMessage{{Uid: self.Uid, Kind: kind}}

	other := tx.Get(self.AskedBy)
	assert.Truef(other.Tag == matchstate.Asking, "handleAskedRelease: askedBy %d is %s, want Asking", other.Uid, other.Tag)
	_, more := searchForMatch(tx, ts, other)
	msgs = append(msgs, more...)
	return msgs
}

// handleSearchingTick implements the SCHED half of spec.md §4.4.5.
func handleSearchingTick(tx *matchtxn.Transaction, ts clock.Timestamp, self matchstate.UserState) []OutboundMessage {
	if self.SearchingUntil > ts {
		nextRefresh := clock.Min(self.SearchingUntil, ts.Add(SearchUpdateInterval))
		tx.Set(withNextRefresh(self, nextRefresh))
		secondsLeft := ceilToInterval(self.SearchingUntil.Sub(ts), SearchUpdateInterval)
		return []OutboundMessage{{Uid: self.Uid, Kind: KindUpdateSearching, SecondsLeft: int64(secondsLeft)}}
	}

	return releaseSearchLinks(tx, ts, self, matchstate.NewActive(self.Uid, self.Name, self.Sex, self.Opinion, ts), KindSearchTimedOut)
}

// handleStopSearching implements the STOP_SEARCHING half of spec.md §4.4.5.
func handleStopSearching(tx *matchtxn.Transaction, ts clock.Timestamp, self matchstate.UserState) []OutboundMessage {
	return releaseSearchLinks(tx, ts, self, matchstate.NewInactive(self.Uid, self.Name, self.Sex, self.Opinion, 0, false), KindAfterStopSearch)
}

// releaseSearchLinks applies newSelf (Active on timeout, Inactive on stop),
// emits kind for self, and releases whatever link self held:
//   - an Asking user's Asked partner is freed and, if reserved, the
//     reservation holder is re-run through searchForMatch;
//   - a Waiting user's reservation on an Asking partner is cleared.
func releaseSearchLinks(tx *matchtxn.Transaction, ts clock.Timestamp, self, newSelf matchstate.UserState, kind MessageKind) []OutboundMessage {
	tx.Set(newSelf)
	msgs := []OutboundMessage{{Uid: self.Uid, Kind: kind}}

	switch self.Tag {
	case matchstate.Asking:
		asked := tx.Get(self.AskedUid)
		assert.Truef(asked.Tag == matchstate.Asked, "releaseSearchLinks: askedUid %d is %s, want Asked", asked.Uid, asked.Tag)
		tx.Set(matchstate.NewInactive(asked.Uid, asked.Name, asked.Sex, asked.Opinion, 0, false))
		msgs = append(msgs, OutboundMessage{Uid: asked.Uid, Kind: KindAfterAskingTimedOut})

		if self.HasWaitedBy {
			waiting := tx.Get(self.WaitedBy)
			assert.Truef(waiting.Tag == matchstate.Waiting, "releaseSearchLinks: waitedBy %d is %s, want Waiting", waiting.Uid, waiting.Tag)
			tx.Set(waitingState(waiting, waiting.SearchingUntil, waiting.NextRefresh, 0, false))
			_, more := searchForMatch(tx, ts, tx.Get(waiting.Uid))
			msgs = append(msgs, more...)
		}

	case matchstate.Waiting:
		if self.HasWaitingFor {
			breakReservation(tx, self.WaitingFor)
		}
	}

	return msgs
}

func withNextRefresh(self matchstate.UserState, nextRefresh clock.Timestamp) matchstate.UserState {
	switch self.Tag {
	case matchstate.Asking:
		return matchstate.NewAsking(self.Uid, matchstate.AskingParams{
			Name: self.Name, Sex: self.Sex, Opinion: self.Opinion,
			SearchingUntil: self.SearchingUntil, NextRefresh: nextRefresh,
			AskedUid: self.AskedUid, AskingUntil: self.AskingUntil,
			WaitedBy: self.WaitedBy, HasWaitedBy: self.HasWaitedBy,
		})
	case matchstate.Waiting:
		return matchstate.NewWaiting(self.Uid, matchstate.WaitingParams{
			Name: self.Name, Sex: self.Sex, Opinion: self.Opinion,
			SearchingUntil: self.SearchingUntil, NextRefresh: nextRefresh,
			WaitingFor: self.WaitingFor, HasWaitingFor: self.HasWaitingFor,
		})
	default:
		return self
	}
}

// ceilToInterval rounds d up to the next multiple of interval; it is
// idempotent for d already a multiple of interval (spec.md §8).
func ceilToInterval(d, interval clock.Duration) clock.Duration {
	if d <= 0 {
		return 0
	}
	n := (int64(d) + int64(interval) - 1) / int64(interval)
	return clock.Duration(n) * interval
}
