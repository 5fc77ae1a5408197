// Package matchstate defines the per-user state model: a closed tagged
// variant with value semantics. Every transition in internal/matcher
// produces a brand new UserState rather than mutating one in place, and all
// cross-user links are plain Uid indirection — never pointers between
// states — so persistence and the index can treat a UserState as an inert
// value.
package matchstate

import "github.com/shopmindai/voicematch/internal/clock"

// Uid is the opaque per-user identifier assigned by the chat platform.
type Uid int64

// Tag names which variant of UserState is active. Exactly one tag is
// active per Uid at any time; Initial is virtual and is never persisted.
type Tag int

const (
	Initial Tag = iota
	WaitingForOpinion
	WaitingForName
	Inactive
	Asking
	Waiting
	Active
	Asked
)

func (t Tag) String() string {
	switch t {
	case Initial:
		return "Initial"
	case WaitingForOpinion:
		return "WaitingForOpinion"
	case WaitingForName:
		return "WaitingForName"
	case Inactive:
		return "Inactive"
	case Asking:
		return "Asking"
	case Waiting:
		return "Waiting"
	case Active:
		return "Active"
	case Asked:
		return "Asked"
	default:
		return "Unknown"
	}
}

// Sex is the two-value gender marker carried on registered states, used
// only to pick gendered message parameters at the (external) rendering
// boundary.
type Sex int

const (
	SexUnspecified Sex = iota
	Male
	Female
)

// Opinion is the two-value topic stance carried on registered states.
type Opinion int

const (
	OpinionUnspecified Opinion = iota
	Pro
	Con
)

// Opposite returns the other opinion; Pro and Con are each other's
// opposite, everything else is unspecified.
func (o Opinion) Opposite() Opinion {
	switch o {
	case Pro:
		return Con
	case Con:
		return Pro
	default:
		return OpinionUnspecified
	}
}

// MaxDisplayNameRunes bounds WaitingForName free text and the /start
// display name, matching the original project's truncation of overlong
// names before they are ever persisted.
const MaxDisplayNameRunes = 64

// UserState is the tagged variant. Only the fields relevant to Tag are
// meaningful; constructors below are the only supported way to build one so
// that stale fields from a previous tag are never carried forward by
// accident.
type UserState struct {
	Tag Tag
	Uid Uid

	// WaitingForOpinion
	DisplayName string

	// WaitingForName, Inactive, Asking, Waiting, Active, Asked
	Name    string
	Sex     Sex
	Opinion Opinion

	// Inactive
	SurveyTs    clock.Timestamp
	HasSurveyTs bool

	// Asking, Waiting (search window)
	SearchingUntil clock.Timestamp
	NextRefresh    clock.Timestamp

	// Asking
	AskedUid    Uid
	AskingUntil clock.Timestamp
	WaitedBy    Uid
	HasWaitedBy bool

	// Waiting
	WaitingFor    Uid
	HasWaitingFor bool

	// Active
	Since clock.Timestamp

	// Asked
	Until   clock.Timestamp
	AskedBy Uid
}

// NewInitial returns the virtual Initial state for uid. It is never
// written to storage; Transaction.Get returns it when no row exists.
func NewInitial(uid Uid) UserState {
	return UserState{Tag: Initial, Uid: uid}
}

// NewWaitingForOpinion returns the state entered on /start.
func NewWaitingForOpinion(uid Uid, displayName string) UserState {
	return UserState{Tag: WaitingForOpinion, Uid: uid, DisplayName: truncateRunes(displayName, MaxDisplayNameRunes)}
}

// NewWaitingForName returns the state entered once an opinion is chosen.
func NewWaitingForName(uid Uid, sex Sex, opinion Opinion) UserState {
	return UserState{Tag: WaitingForName, Uid: uid, Sex: sex, Opinion: opinion}
}

// NewInactive returns a registered, idle state. surveyTs is absent when ok
// is false.
func NewInactive(uid Uid, name string, sex Sex, opinion Opinion, surveyTs clock.Timestamp, ok bool) UserState {
	return UserState{
		Tag: Inactive, Uid: uid, Name: truncateRunes(name, MaxDisplayNameRunes), Sex: sex, Opinion: opinion,
		SurveyTs: surveyTs, HasSurveyTs: ok,
	}
}

// AskingParams bundles the fields needed to build an Asking state.
type AskingParams struct {
	Name           string
	Sex            Sex
	Opinion        Opinion
	SearchingUntil clock.Timestamp
	NextRefresh    clock.Timestamp
	AskedUid       Uid
	AskingUntil    clock.Timestamp
	WaitedBy       Uid
	HasWaitedBy    bool
}

// NewAsking returns the state for a user currently asking AskedUid.
func NewAsking(uid Uid, p AskingParams) UserState {
	return UserState{
		Tag: Asking, Uid: uid, Name: p.Name, Sex: p.Sex, Opinion: p.Opinion,
		SearchingUntil: p.SearchingUntil, NextRefresh: p.NextRefresh,
		AskedUid: p.AskedUid, AskingUntil: p.AskingUntil,
		WaitedBy: p.WaitedBy, HasWaitedBy: p.HasWaitedBy,
	}
}

// WaitingParams bundles the fields needed to build a Waiting state.
type WaitingParams struct {
	Name           string
	Sex            Sex
	Opinion        Opinion
	SearchingUntil clock.Timestamp
	NextRefresh    clock.Timestamp
	WaitingFor     Uid
	HasWaitingFor  bool
}

// NewWaiting returns the state for a user searching without an outstanding ask.
func NewWaiting(uid Uid, p WaitingParams) UserState {
	return UserState{
		Tag: Waiting, Uid: uid, Name: p.Name, Sex: p.Sex, Opinion: p.Opinion,
		SearchingUntil: p.SearchingUntil, NextRefresh: p.NextRefresh,
		WaitingFor: p.WaitingFor, HasWaitingFor: p.HasWaitingFor,
	}
}

// NewActive returns the passively-eligible state.
func NewActive(uid Uid, name string, sex Sex, opinion Opinion, since clock.Timestamp) UserState {
	return UserState{Tag: Active, Uid: uid, Name: name, Sex: sex, Opinion: opinion, Since: since}
}

// NewAsked returns the state for a user currently being asked by askedBy.
func NewAsked(uid Uid, name string, sex Sex, opinion Opinion, until clock.Timestamp, askedBy Uid) UserState {
	return UserState{Tag: Asked, Uid: uid, Name: name, Sex: sex, Opinion: opinion, Until: until, AskedBy: askedBy}
}

// IsRegistered reports whether the state carries a name/sex/opinion, i.e.
// every tag except Initial, WaitingForOpinion, and WaitingForName.
func (s UserState) IsRegistered() bool {
	switch s.Tag {
	case Inactive, Asking, Waiting, Active, Asked:
		return true
	default:
		return false
	}
}

// IsSearching reports whether s is actively searching (Asking or Waiting).
func (s UserState) IsSearching() bool {
	return s.Tag == Asking || s.Tag == Waiting
}

// Sched returns the derived scheduling timestamp for s, if any:
// Inactive.SurveyTs, Asking/Waiting.NextRefresh, or Asked.Until.
func (s UserState) Sched() (clock.Timestamp, bool) {
	switch s.Tag {
	case Inactive:
		if s.HasSurveyTs {
			return s.SurveyTs, true
		}
		return 0, false
	case Asking, Waiting:
		return s.NextRefresh, true
	case Asked:
		return s.Until, true
	default:
		return 0, false
	}
}

// PriorityClass is the first (class) component of the derived priority
// tuple used to rank candidates to ask; lower wins.
type PriorityClass int

const (
	classWaiting PriorityClass = 1
	classAsking  PriorityClass = 2
	classActive  PriorityClass = 3
)

// Priority returns the derived (class, tiebreak) priority of s as a
// candidate to be asked, and whether s is eligible at all. Lower is
// better; ties are broken by Uid by the caller (the index orders by Uid on
// equal score). Priority does not depend on who is searching — it is the
// per-candidate score; callers bucket candidates into the searching
// opinion's queue via s.Opinion.Opposite(), per spec.md §3.
func (s UserState) Priority() (class PriorityClass, tiebreak int64, ok bool) {
	if !s.IsRegistered() {
		return 0, 0, false
	}
	switch s.Tag {
	case Waiting:
		return classWaiting, int64(s.SearchingUntil), true
	case Asking:
		if s.HasWaitedBy {
			return 0, 0, false
		}
		return classAsking, int64(s.AskingUntil), true
	case Active:
		return classActive, -int64(s.Since), true
	default:
		return 0, 0, false
	}
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
