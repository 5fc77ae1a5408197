package matcher

import "github.com/shopmindai/voicematch/internal/matchstate"

// MessageKind enumerates the abstract message catalog from spec.md §4.4;
// rendering the kind (and its params) into platform text/keyboards is an
// external concern.
type MessageKind int

const (
	KindUnexpected MessageKind = iota
	KindWelcome
	KindAskOpinion
	KindTypeName
	KindRegistered
	KindInactive
	KindSearching
	KindUpdateSearching
	KindFoundPartner
	KindAreYouAvailable
	KindAfterAskingTimedOut
	KindAfterReplyUnavailable
	KindSearchTimedOut
	KindAfterStopSearch
	KindHowWasTheCall
	KindThanksForAnswering
)

func (k MessageKind) String() string {
	switch k {
	case KindUnexpected:
		return "Unexpected"
	case KindWelcome:
		return "Welcome"
	case KindAskOpinion:
		return "AskOpinion"
	case KindTypeName:
		return "TypeName"
	case KindRegistered:
		return "Registered"
	case KindInactive:
		return "Inactive"
	case KindSearching:
		return "Searching"
	case KindUpdateSearching:
		return "UpdateSearching"
	case KindFoundPartner:
		return "FoundPartner"
	case KindAreYouAvailable:
		return "AreYouAvailable"
	case KindAfterAskingTimedOut:
		return "AfterAskingTimedOut"
	case KindAfterReplyUnavailable:
		return "AfterReplyUnavailable"
	case KindSearchTimedOut:
		return "SearchTimedOut"
	case KindAfterStopSearch:
		return "AfterStopSearch"
	case KindHowWasTheCall:
		return "HowWasTheCall"
	case KindThanksForAnswering:
		return "ThanksForAnswering"
	default:
		return "Unknown"
	}
}

// OutboundMessage is one entry of the ordered list Handle returns. Only
// the fields relevant to Kind are populated; see spec.md §4.4's catalog
// for which params belong to which kind.
type OutboundMessage struct {
	Uid matchstate.Uid
	Kind MessageKind

	OtherUid  matchstate.Uid
	OtherName string
	OtherSex  matchstate.Sex

	SecondsLeft int64

	Reply Cmd
}

func unexpected(uid matchstate.Uid) []OutboundMessage {
	return []OutboundMessage{{Uid: uid, Kind: KindUnexpected}}
}
