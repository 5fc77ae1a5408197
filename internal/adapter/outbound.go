package adapter

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/shopmindai/voicematch/internal/cache"
	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// ActionKind enumerates the OutboundAction catalog from spec.md §6.
type ActionKind int

const (
	ActionSend ActionKind = iota
	ActionEditLast
	ActionDeleteLast
	ActionAckCallback
)

// OutboundAction is one call the adapter makes against the chat
// platform's Bot API.
type OutboundAction struct {
	Kind         ActionKind
	Uid          matchstate.Uid
	MessageKind  matcher.MessageKind
	Params       map[string]any
	ExpectsReply bool
	CallbackID   string
}

// BotClient is the narrow Bot API surface the dispatcher needs; production
// wires this to real HTTP calls, tests use a recording fake.
type BotClient interface {
	// Send delivers a new message and returns its platform message id.
	Send(ctx context.Context, uid matchstate.Uid, kind matcher.MessageKind, params map[string]any) (messageID string, err error)
	EditMessage(ctx context.Context, uid matchstate.Uid, messageID string, kind matcher.MessageKind, params map[string]any) error
	DeleteMessage(ctx context.Context, uid matchstate.Uid, messageID string) error
	AckCallbackQuery(ctx context.Context, callbackID string) error
}

// hasKeyboard reports whether kind's rendering carries an inline choice
// keyboard, per spec.md §6: only those sends update the tracked "last
// interactive message id".
func hasKeyboard(kind matcher.MessageKind) bool {
	switch kind {
	case matcher.KindAskOpinion, matcher.KindAreYouAvailable, matcher.KindSearching,
		matcher.KindUpdateSearching, matcher.KindHowWasTheCall:
		return true
	default:
		return false
	}
}

// messageIDCache is the slice of cache.Cache the dispatcher needs, so
// tests can swap in an in-memory fake instead of a live Redis.
type messageIDCache interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Dispatcher sends matcher.OutboundMessage values as Bot API sends over a
// bounded worker pool, tracking each Uid's last interactive message id
// via the Redis cache-aside layer. Sized via
// config, default 4 — mirroring the teacher's hub.runWithWorkers(4).
type Dispatcher struct {
	bot     BotClient
	cache   messageIDCache
	log     logrus.FieldLogger
	workers int
}

// NewDispatcher builds a Dispatcher with workers concurrent senders.
func NewDispatcher(bot BotClient, c messageIDCache, log logrus.FieldLogger, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{bot: bot, cache: c, log: log, workers: workers}
}

// Dispatch renders and sends msgs, in order per spec.md §5's "outbound
// messages are delivered in the order the matcher emits them" — sends
// for distinct Uids may run concurrently (bounded by workers), but a
// single Uid's messages are never reordered within one call to Dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []matcher.OutboundMessage) {
	byUid := make(map[matchstate.Uid][]matcher.OutboundMessage)
	order := make([]matchstate.Uid, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := byUid[m.Uid]; !ok {
			order = append(order, m.Uid)
		}
		byUid[m.Uid] = append(byUid[m.Uid], m)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)
	for _, uid := range order {
		uid, seq := uid, byUid[uid]
		g.Go(func() error {
			d.sendSequence(gctx, uid, seq)
			return nil
		})
	}
	_ = g.Wait()
}

func (d *Dispatcher) sendSequence(ctx context.Context, uid matchstate.Uid, seq []matcher.OutboundMessage) {
	for _, m := range seq {
		if !d.send(ctx, m) {
			return
		}
	}
}

// send makes a single attempt to deliver m and reports whether it
// succeeded.
func (d *Dispatcher) send(ctx context.Context, m matcher.OutboundMessage) bool {
	params := renderParams(m)

	messageID, err := d.bot.Send(ctx, m.Uid, m.Kind, params)
	if err != nil {
		// FatalOutbound/TransientOutbound per spec.md §7: log, and the
		// caller skips the rest of this Uid's messages in the batch;
		// matcher state is already committed.
		if d.log != nil {
			d.log.WithError(err).WithField("uid", m.Uid).WithField("kind", m.Kind.String()).
				Warn("adapter: outbound send failed")
		}
		return false
	}

	key := cache.LastMessageKey(int64(m.Uid))
	if hasKeyboard(m.Kind) {
		if err := d.cache.Set(ctx, key, messageID, time.Hour); err != nil && d.log != nil {
			d.log.WithError(err).Warn("adapter: failed to record last interactive message id")
		}
	} else {
		if err := d.cache.Delete(ctx, key); err != nil && d.log != nil {
			d.log.WithError(err).Warn("adapter: failed to clear last interactive message id")
		}
	}
	return true
}

// AckCallback best-effort acknowledges a callback query; failure is
// always swallowed per spec.md §7.
func (d *Dispatcher) AckCallback(ctx context.Context, callbackID string) {
	if err := d.bot.AckCallbackQuery(ctx, callbackID); err != nil && d.log != nil {
		d.log.WithError(err).Debug("adapter: callback ack failed, swallowed")
	}
}

// renderParams maps an OutboundMessage's structured fields into the
// Bot-API parameter bag; the actual text templates are an external
// rendering concern the core never owns.
func renderParams(m matcher.OutboundMessage) map[string]any {
	params := map[string]any{"kind": m.Kind.String()}
	if m.OtherUid != 0 {
		params["other_uid"] = int64(m.OtherUid)
		params["other_name"] = m.OtherName
		params["other_sex"] = int(m.OtherSex)
	}
	if m.SecondsLeft != 0 {
		params["seconds_left"] = m.SecondsLeft
	}
	if m.Reply != "" {
		params["reply"] = string(m.Reply)
	}
	return params
}
