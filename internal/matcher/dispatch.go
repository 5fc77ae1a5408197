package matcher

import (
	"strings"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matchstate"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

// Handle is the matcher's single entry point: given the current
// transaction, the (explicit, deterministic) timestamp, and one logical
// input, it applies state transitions to tx and returns the ordered
// outbound messages to emit. Handle never suspends and never touches a
// clock itself.
func Handle(tx *matchtxn.Transaction, ts clock.Timestamp, input Input) []OutboundMessage {
	if start, ok := input.(StartCommand); ok {
		return handleStart(tx, ts, start)
	}

	switch in := input.(type) {
	case TextInput:
		return handleTextInput(tx, ts, in)
	case Callback:
		if in.Cmd == CmdSched {
			// SCHED is only ever adapter-synthesized via Tick; a Callback
			// claiming it is not a valid user-originated command.
			tx.Log(ts, "unexpected", map[string]any{"uid": in.Uid, "cmd": string(in.Cmd)})
			return unexpected(in.Uid)
		}
		return dispatchCmd(tx, ts, in.Uid, in.Cmd)
	case Tick:
		return handleTick(tx, ts, in)
	default:
		return nil
	}
}

func handleStart(tx *matchtxn.Transaction, ts clock.Timestamp, in StartCommand) []OutboundMessage {
	tx.Set(matchstate.NewWaitingForOpinion(in.Uid, in.DisplayName))
	tx.Log(ts, "start", map[string]any{"uid": in.Uid})
	return []OutboundMessage{
		{Uid: in.Uid, Kind: KindWelcome},
		{Uid: in.Uid, Kind: KindAskOpinion},
	}
}

func handleTextInput(tx *matchtxn.Transaction, ts clock.Timestamp, in TextInput) []OutboundMessage {
	state := tx.Get(in.Uid)
	if state.Tag != matchstate.WaitingForName {
		tx.Log(ts, "unexpected", map[string]any{"uid": in.Uid})
		return unexpected(in.Uid)
	}

	tx.Set(matchstate.NewInactive(in.Uid, strings.TrimSpace(in.Text), state.Sex, state.Opinion, 0, false))
	tx.Log(ts, "register", map[string]any{"uid": in.Uid})
	return []OutboundMessage{
		{Uid: in.Uid, Kind: KindRegistered},
		{Uid: in.Uid, Kind: KindInactive},
	}
}

// handleTick re-reads uid's current sched before dispatching; a Tick whose
// sched has since moved on (or vanished) is silently discarded, per
// spec.md §4.5/§9 — the scheduler driver must not assume a fired timer
// still corresponds to a current deadline.
func handleTick(tx *matchtxn.Transaction, ts clock.Timestamp, in Tick) []OutboundMessage {
	state := tx.Get(in.Uid)
	sched, ok := state.Sched()
	if !ok || ts < sched {
		return nil
	}
	return dispatchCmd(tx, ts, in.Uid, CmdSched)
}

func dispatchCmd(tx *matchtxn.Transaction, ts clock.Timestamp, uid matchstate.Uid, cmd Cmd) []OutboundMessage {
	state := tx.Get(uid)

	switch state.Tag {
	case matchstate.WaitingForOpinion:
		return dispatchWaitingForOpinion(tx, ts, state, cmd)
	case matchstate.Inactive:
		return dispatchInactive(tx, ts, state, cmd)
	case matchstate.Active:
		return dispatchActive(tx, ts, state, cmd)
	case matchstate.Asking, matchstate.Waiting:
		return dispatchSearching(tx, ts, state, cmd)
	case matchstate.Asked:
		return dispatchAsked(tx, ts, state, cmd)
	default:
		// Initial and WaitingForName only accept StartCommand / TextInput
		// respectively; any Cmd here is unmatched.
		tx.Log(ts, "unexpected", map[string]any{"uid": uid, "state": state.Tag.String(), "cmd": string(cmd)})
		return unexpected(uid)
	}
}

func dispatchWaitingForOpinion(tx *matchtxn.Transaction, ts clock.Timestamp, state matchstate.UserState, cmd Cmd) []OutboundMessage {
	if !isOpinionChoice(cmd) {
		tx.Log(ts, "unexpected", map[string]any{"uid": state.Uid, "cmd": string(cmd)})
		return unexpected(state.Uid)
	}

	var sex matchstate.Sex
	var opinion matchstate.Opinion
	switch cmd {
	case CmdOpinionMalePro:
		sex, opinion = matchstate.Male, matchstate.Pro
	case CmdOpinionMaleCon:
		sex, opinion = matchstate.Male, matchstate.Con
	case CmdOpinionFemalePro:
		sex, opinion = matchstate.Female, matchstate.Pro
	case CmdOpinionFemaleCon:
		sex, opinion = matchstate.Female, matchstate.Con
	}

	tx.Set(matchstate.NewWaitingForName(state.Uid, sex, opinion))
	tx.Log(ts, "opinion_chosen", map[string]any{"uid": state.Uid})
	return []OutboundMessage{{Uid: state.Uid, Kind: KindTypeName}}
}

func dispatchInactive(tx *matchtxn.Transaction, ts clock.Timestamp, state matchstate.UserState, cmd Cmd) []OutboundMessage {
	switch {
	case cmd == CmdImAvailableNow:
		_, msgs := searchForMatch(tx, ts, state)
		return msgs
	case cmd == CmdSched:
		// The survey prompt firing: clear surveyTs, emit HowWasTheCall.
		tx.Set(matchstate.NewInactive(state.Uid, state.Name, state.Sex, state.Opinion, 0, false))
		tx.Log(ts, "survey_prompt", map[string]any{"uid": state.Uid})
		return []OutboundMessage{{Uid: state.Uid, Kind: KindHowWasTheCall}}
	case isSurveyReply(cmd):
		tx.Log(ts, "survey_reply", map[string]any{"uid": state.Uid, "reply": string(cmd)})
		return []OutboundMessage{{Uid: state.Uid, Kind: KindThanksForAnswering, Reply: cmd}}
	default:
		tx.Log(ts, "unexpected", map[string]any{"uid": state.Uid, "cmd": string(cmd)})
		return unexpected(state.Uid)
	}
}

func dispatchActive(tx *matchtxn.Transaction, ts clock.Timestamp, state matchstate.UserState, cmd Cmd) []OutboundMessage {
	switch cmd {
	case CmdImAvailableNow:
		_, msgs := searchForMatch(tx, ts, state)
		return msgs
	case CmdImNoLongerAvailable:
		tx.Set(matchstate.NewInactive(state.Uid, state.Name, state.Sex, state.Opinion, 0, false))
		tx.Log(ts, "stop_active", map[string]any{"uid": state.Uid})
		return []OutboundMessage{{Uid: state.Uid, Kind: KindAfterReplyUnavailable}}
	default:
		tx.Log(ts, "unexpected", map[string]any{"uid": state.Uid, "cmd": string(cmd)})
		return unexpected(state.Uid)
	}
}

func dispatchSearching(tx *matchtxn.Transaction, ts clock.Timestamp, state matchstate.UserState, cmd Cmd) []OutboundMessage {
	switch cmd {
	case CmdSched:
		return handleSearchingTick(tx, ts, state)
	case CmdStopSearching:
		return handleStopSearching(tx, ts, state)
	default:
		tx.Log(ts, "unexpected", map[string]any{"uid": state.Uid, "cmd": string(cmd)})
		return unexpected(state.Uid)
	}
}

func dispatchAsked(tx *matchtxn.Transaction, ts clock.Timestamp, state matchstate.UserState, cmd Cmd) []OutboundMessage {
	switch cmd {
	case CmdAnswerAvailable:
		return handleAnswerAvailable(tx, ts, state)
	case CmdAnswerUnavailable:
		return handleAskedRelease(tx, ts, state, KindAfterReplyUnavailable)
	case CmdSched:
		return handleAskedRelease(tx, ts, state, KindAfterAskingTimedOut)
	default:
		tx.Log(ts, "unexpected", map[string]any{"uid": state.Uid, "cmd": string(cmd)})
		return unexpected(state.Uid)
	}
}
