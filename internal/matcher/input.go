package matcher

import "github.com/shopmindai/voicematch/internal/matchstate"

// Input is the closed set of logical inputs the adapter and scheduler
// driver may feed to Handle (spec.md §4.4, §6).
type Input interface {
	isInput()
}

// StartCommand force-resets uid to WaitingForOpinion, regardless of its
// current state — it is handled before any per-state dispatch.
type StartCommand struct {
	Uid         matchstate.Uid
	DisplayName string
}

func (StartCommand) isInput() {}

// TextInput is only meaningful while uid is WaitingForName.
type TextInput struct {
	Uid  matchstate.Uid
	Text string
}

func (TextInput) isInput() {}

// Callback is a button press; Cmd is never CmdSched — that value is
// reserved for the synthetic Tick input.
type Callback struct {
	Uid matchstate.Uid
	Cmd Cmd
}

func (Callback) isInput() {}

// Tick is the synthetic input the scheduler driver emits when a Uid's
// sched is due. It is discarded (no state change, no message) if, by the
// time it's dispatched, the Uid's sched has moved past ts or no longer
// exists.
type Tick struct {
	Uid matchstate.Uid
}

func (Tick) isInput() {}
