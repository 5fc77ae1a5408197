// Package adapter is the chat-platform boundary from spec.md §6: an
// inbound gin webhook classifying Telegram-shaped updates into
// matcher.Input, and an outbound renderer turning matcher.OutboundMessage
// into Bot API calls. The core never imports this package; adapter
// imports matcher, matchstate, and cache.
package adapter

import (
	"strings"

	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// Update is the subset of a Telegram webhook payload the classifier
// needs; the webhook.go handler decodes the raw JSON payload into this
// shape before calling Classify.
type Update struct {
	Uid          matchstate.Uid
	DisplayName  string
	Text         string
	CallbackID   string
	CallbackData string
}

// classified is the result of classifying one Update. A known callback
// sets both Input and Ack; unknown callback data sets only Ack (a bare
// acknowledgement with no matcher input); text sets only Input.
type classified struct {
	Input matcher.Input
	Ack   string // non-empty: AckCallback the adapter must still send
}

// helpAliases lists free-text spellings treated as equivalent to /start
// (original_source's bo_nedaber.py help-text dispatch, supplementing
// spec.md §4.4 which only names the literal /start command). Classify
// sees no user state, so an alias resets the user in every state, exactly
// as /start does.
var helpAliases = map[string]bool{"help": true, "/help": true}

// Classify converts one inbound Update into a matcher.Input; no error
// surfaces to the core. A callback whose data doesn't match any known Cmd
// is acknowledged but produces no Input, so the matcher never sees it and
// no Unexpected message is sent for it.
func Classify(u Update) classified {
	switch {
	case u.CallbackData != "":
		cmd := matcher.Cmd(u.CallbackData)
		if !knownCmd(cmd) {
			return classified{Ack: u.CallbackID}
		}
		return classified{Input: matcher.Callback{Uid: u.Uid, Cmd: cmd}, Ack: u.CallbackID}

	case isStartLike(u.Text):
		return classified{Input: matcher.StartCommand{Uid: u.Uid, DisplayName: u.DisplayName}}

	default:
		return classified{Input: matcher.TextInput{Uid: u.Uid, Text: u.Text}}
	}
}

func isStartLike(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "/start" || helpAliases[t]
}

func knownCmd(cmd matcher.Cmd) bool {
	switch cmd {
	case matcher.CmdOpinionMalePro, matcher.CmdOpinionMaleCon, matcher.CmdOpinionFemalePro, matcher.CmdOpinionFemaleCon,
		matcher.CmdImAvailableNow, matcher.CmdStopSearching, matcher.CmdImNoLongerAvailable,
		matcher.CmdAnswerAvailable, matcher.CmdAnswerUnavailable,
		matcher.CmdS1, matcher.CmdS2, matcher.CmdS3, matcher.CmdS4, matcher.CmdS5,
		matcher.CmdSDidntTalk, matcher.CmdSNoAnswer:
		return true
	default:
		return false
	}
}
