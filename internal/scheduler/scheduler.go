// Package scheduler is the driver loop from spec.md §4.5: a single
// logical consumer that serializes every matcher invocation, fed by two
// producers — the inbound adapter's input channel and the earliest
// scheduled wake-time drawn from the transaction layer's index. It is
// the only place a clock is read; the matcher itself never suspends.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matcher"
	"github.com/shopmindai/voicematch/internal/matchtxn"
)

// Sink delivers a matcher invocation's outbound messages, in order, to
// whatever renders them for the chat platform (internal/adapter in
// production, a recording fake in tests).
type Sink func(ctx context.Context, msgs []matcher.OutboundMessage)

// Driver runs the single-threaded cooperative loop. Its zero value is not
// usable; construct with New.
type Driver struct {
	eng   *matchtxn.Engine
	inbox chan matcher.Input
	sink  Sink
	now   func() clock.Timestamp
	log   logrus.FieldLogger
}

// New builds a Driver. now defaults to clock.Now; tests inject a virtual
// clock instead so ticks fire deterministically.
func New(eng *matchtxn.Engine, sink Sink, log logrus.FieldLogger, now func() clock.Timestamp) *Driver {
	if now == nil {
		now = clock.Now
	}
	return &Driver{
		eng:   eng,
		inbox: make(chan matcher.Input, 256),
		sink:  sink,
		now:   now,
		log:   log,
	}
}

// Submit enqueues an adapter-originated input for processing. It never
// blocks the caller beyond the inbox's buffer; a full inbox applies
// natural backpressure to the adapter's webhook handler.
func (d *Driver) Submit(in matcher.Input) {
	d.inbox <- in
}

// Run is the loop itself: peek the earliest scheduled wake, dispatch a
// Tick immediately if it is already due, otherwise sleep until it is due
// or an inbound input arrives, whichever comes first. It returns when ctx
// is cancelled or the engine reports a persistence failure.
func (d *Driver) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		uid, sched, ok := d.eng.PeekFirstScheduled()
		now := d.now()
		if ok && !sched.After(now) {
			if err := d.dispatch(ctx, matcher.Tick{Uid: uid}, now); err != nil {
				return err
			}
			continue
		}

		var timerC <-chan time.Time
		var timer *time.Timer
		if ok {
			timer = time.NewTimer(toWallDuration(sched.Sub(now)))
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			stop(timer)
			return ctx.Err()
		case in := <-d.inbox:
			stop(timer)
			if err := d.dispatch(ctx, in, d.now()); err != nil {
				return err
			}
		case <-timerC:
		}
	}
}

// dispatch runs one matcher invocation; it returns an error only for
// matchtxn.ErrStorageFailure, which ends Run.
func (d *Driver) dispatch(ctx context.Context, in matcher.Input, ts clock.Timestamp) error {
	var msgs []matcher.OutboundMessage
	err := d.eng.Run(ctx, func(tx *matchtxn.Transaction) error {
		msgs = matcher.Handle(tx, ts, in)
		return nil
	})
	if err != nil {
		if d.log != nil {
			d.log.WithError(err).WithField("input", in).Error("scheduler: transaction failed")
		}
		if errors.Is(err, matchtxn.ErrStorageFailure) {
			return err
		}
		return nil
	}
	if len(msgs) > 0 && d.sink != nil {
		d.sink(ctx, msgs)
	}
	return nil
}

func stop(t *time.Timer) {
	if t != nil {
		t.Stop()
	}
}

func toWallDuration(d clock.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return time.Duration(d) * time.Second
}
