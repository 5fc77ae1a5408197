package adapter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/adapter"
	"github.com/shopmindai/voicematch/internal/cache"
	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

func TestClassifyStartCommand(t *testing.T) {
	c := adapter.Classify(adapter.Update{Uid: 1, DisplayName: "Ada", Text: "/start"})
	require.IsType(t, matcher.StartCommand{}, c.Input)
	assert.Equal(t, matchstate.Uid(1), c.Input.(matcher.StartCommand).Uid)
}

func TestClassifyHelpAliasActsLikeStart(t *testing.T) {
	c := adapter.Classify(adapter.Update{Uid: 1, Text: "help"})
	require.IsType(t, matcher.StartCommand{}, c.Input)
}

func TestClassifyKnownCallback(t *testing.T) {
	c := adapter.Classify(adapter.Update{Uid: 1, CallbackID: "cb1", CallbackData: "IM_AVAILABLE_NOW"})
	require.IsType(t, matcher.Callback{}, c.Input)
	assert.Equal(t, matcher.CmdImAvailableNow, c.Input.(matcher.Callback).Cmd)
	assert.Equal(t, "cb1", c.Ack)
}

func TestClassifyUnknownCallbackYieldsAckOnly(t *testing.T) {
	c := adapter.Classify(adapter.Update{Uid: 1, CallbackID: "cb2", CallbackData: "NOT_A_REAL_CMD"})
	assert.Nil(t, c.Input)
	assert.Equal(t, "cb2", c.Ack)
}

func TestClassifyPlainTextIsTextInput(t *testing.T) {
	c := adapter.Classify(adapter.Update{Uid: 1, Text: "Jordan"})
	require.IsType(t, matcher.TextInput{}, c.Input)
	assert.Equal(t, "Jordan", c.Input.(matcher.TextInput).Text)
}

type fakeBot struct {
	mu     sync.Mutex
	sent   []matcher.MessageKind
	acks   []string
	ackErr error
}

func (b *fakeBot) Send(ctx context.Context, uid matchstate.Uid, kind matcher.MessageKind, params map[string]any) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, kind)
	return "msg-1", nil
}

func (b *fakeBot) EditMessage(ctx context.Context, uid matchstate.Uid, messageID string, kind matcher.MessageKind, params map[string]any) error {
	return nil
}

func (b *fakeBot) DeleteMessage(ctx context.Context, uid matchstate.Uid, messageID string) error {
	return nil
}

func (b *fakeBot) AckCallbackQuery(ctx context.Context, callbackID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acks = append(b.acks, callbackID)
	return b.ackErr
}

type fakeCache struct {
	mu  sync.Mutex
	set map[string]any
}

func (c *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set == nil {
		c.set = map[string]any{}
	}
	c.set[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.set, key)
	return nil
}

func TestDispatchSendsAllMessagesAndTracksKeyboardKind(t *testing.T) {
	bot := &fakeBot{}
	fc := &fakeCache{}
	d := adapter.NewDispatcher(bot, fc, nil, 2)

	msgs := []matcher.OutboundMessage{
		{Uid: 1, Kind: matcher.KindWelcome},
		{Uid: 1, Kind: matcher.KindAskOpinion},
	}
	d.Dispatch(context.Background(), msgs)

	bot.mu.Lock()
	defer bot.mu.Unlock()
	require.Len(t, bot.sent, 2)
	assert.Equal(t, matcher.KindWelcome, bot.sent[0])
	assert.Equal(t, matcher.KindAskOpinion, bot.sent[1])

	// AskOpinion carries a keyboard, so its message id is the one tracked.
	fc.mu.Lock()
	defer fc.mu.Unlock()
	assert.Equal(t, "msg-1", fc.set[cache.LastMessageKey(1)])
}

func TestAckCallbackSwallowsErrors(t *testing.T) {
	bot := &fakeBot{ackErr: errors.New("ack failed")}
	d := adapter.NewDispatcher(bot, &fakeCache{}, nil, 1)
	d.AckCallback(context.Background(), "cb-x")

	bot.mu.Lock()
	defer bot.mu.Unlock()
	assert.Equal(t, []string{"cb-x"}, bot.acks)
}
