// Package matcher is the state-machine dispatch at the heart of the
// matching engine (spec.md §4.4): given a transaction, a timestamp, and an
// Input, it applies zero or more Transaction.Set calls and returns the
// ordered list of OutboundMessage values to emit.
package matcher

import "github.com/shopmindai/voicematch/internal/clock"

// Protocol constants, spec.md §4.4.1.
const (
	AskingDuration       clock.Duration = 19
	SearchDuration       clock.Duration = 60
	SearchUpdateInterval clock.Duration = 5
	SurveyDuration       clock.Duration = 60
)

func init() {
	if SearchDuration%SearchUpdateInterval != 0 {
		panic("matcher: SEARCH_DURATION must be exactly divisible by SEARCH_UPDATE_INTERVAL")
	}
}

// Cmd is the closed set of button/command inputs the adapter may deliver
// via Callback, plus SCHED which only the scheduler driver's synthetic
// Tick input may produce.
type Cmd string

const (
	CmdOpinionMalePro      Cmd = "OPINION_MALE_PRO"
	CmdOpinionMaleCon      Cmd = "OPINION_MALE_CON"
	CmdOpinionFemalePro    Cmd = "OPINION_FEMALE_PRO"
	CmdOpinionFemaleCon    Cmd = "OPINION_FEMALE_CON"
	CmdImAvailableNow      Cmd = "IM_AVAILABLE_NOW"
	CmdStopSearching       Cmd = "STOP_SEARCHING"
	CmdImNoLongerAvailable Cmd = "IM_NO_LONGER_AVAILABLE"
	CmdAnswerAvailable     Cmd = "ANSWER_AVAILABLE"
	CmdAnswerUnavailable   Cmd = "ANSWER_UNAVAILABLE"
	CmdSched               Cmd = "SCHED"
	CmdS1                  Cmd = "S1"
	CmdS2                  Cmd = "S2"
	CmdS3                  Cmd = "S3"
	CmdS4                  Cmd = "S4"
	CmdS5                  Cmd = "S5"
	CmdSDidntTalk          Cmd = "S_DIDNT_TALK"
	CmdSNoAnswer           Cmd = "S_NO_ANSWER"
)

func isSurveyReply(cmd Cmd) bool {
	switch cmd {
	case CmdS1, CmdS2, CmdS3, CmdS4, CmdS5, CmdSDidntTalk, CmdSNoAnswer:
		return true
	default:
		return false
	}
}

func isOpinionChoice(cmd Cmd) bool {
	switch cmd {
	case CmdOpinionMalePro, CmdOpinionMaleCon, CmdOpinionFemalePro, CmdOpinionFemaleCon:
		return true
	default:
		return false
	}
}
