// Package matchtxn implements the transaction layer from spec.md §4.3: a
// read/write view over the in-memory state map and its two derived
// indices, with atomic commit and asynchronous, batched persistence.
//
// Only one transaction may be open at a time (the scheduler driver and the
// adapter both funnel through Engine.Run, which serializes access), and a
// transaction's own writes are immediately visible to its own reads —
// Set mutates the live engine state and index right away; Commit only
// flushes the accumulated write-behind batch to the persistence Store.
package matchtxn

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matchindex"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// LogEntry is one structured event appended by Transaction.Log.
type LogEntry struct {
	Ts     clock.Timestamp
	Kind   string
	Fields map[string]any
}

// Store is the persistence collaborator: load-on-boot plus an
// asynchronous per-commit write. Implementations own their own write
// queue and single DB connection (spec.md §5/§7); internal/store provides
// the Postgres+Kafka implementation.
type Store interface {
	LoadAll(ctx context.Context) (map[matchstate.Uid]matchstate.UserState, error)
	CommitBatch(ctx context.Context, batch []matchstate.UserState, logs []LogEntry) error
}

// ErrStorageFailure is returned by Engine.Begin once the background writer
// has reported a failed commit — the FatalPersistence disposition from
// spec.md §7. The caller (the scheduler driver's main loop) should
// terminate; an operator must restart the process.
var ErrStorageFailure = fmt.Errorf("matchtxn: storage failure, transactions refused")

// ErrTransactionAlreadyOpen guards the "only one transaction may be open
// at a time" invariant; it is a programming error, not a runtime
// disposition, since the driver is meant to serialize all access.
var ErrTransactionAlreadyOpen = fmt.Errorf("matchtxn: a transaction is already open")

type writeJob struct {
	batch []matchstate.UserState
	logs  []LogEntry
}

// Engine owns the live state map, the two derived indices, and the
// asynchronous write-behind queue to Store.
type Engine struct {
	store Store

	mu     sync.Mutex
	states map[matchstate.Uid]matchstate.UserState
	index  *matchindex.Index
	open   bool

	writeCh chan writeJob
	failMu  sync.Mutex
	failed  bool
}

// NewEngine loads all state from store and starts the background writer.
// Per spec.md §6, only after this load completes should the scheduler
// driver start.
func NewEngine(ctx context.Context, store Store) (*Engine, error) {
	states, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("matchtxn: load all: %w", err)
	}
	if states == nil {
		states = make(map[matchstate.Uid]matchstate.UserState)
	}

	eng := &Engine{
		store:   store,
		states:  states,
		index:   matchindex.Rebuild(states),
		writeCh: make(chan writeJob, 256),
	}
	go eng.runWriter(ctx)
	return eng, nil
}

func (eng *Engine) runWriter(ctx context.Context) {
	for job := range eng.writeCh {
		if err := eng.store.CommitBatch(ctx, job.batch, job.logs); err != nil {
			eng.failMu.Lock()
			eng.failed = true
			eng.failMu.Unlock()
		}
	}
}

// Begin opens a new Transaction. It fails with ErrStorageFailure if a
// previous commit's asynchronous write has failed (the FatalPersistence
// disposition), and with ErrTransactionAlreadyOpen if a transaction is
// already open (a programming-error guard around the single-writer
// assumption the scheduler driver maintains).
func (eng *Engine) Begin() (*Transaction, error) {
	eng.failMu.Lock()
	failed := eng.failed
	eng.failMu.Unlock()
	if failed {
		return nil, ErrStorageFailure
	}

	eng.mu.Lock()
	if eng.open {
		eng.mu.Unlock()
		return nil, ErrTransactionAlreadyOpen
	}
	eng.open = true
	eng.mu.Unlock()

	return &Transaction{eng: eng, changedOrder: nil, changed: make(map[matchstate.Uid]matchstate.UserState)}, nil
}

// Run begins a transaction, invokes fn, and always commits — even if fn
// panics — before re-panicking. This is the non-cancellable semantics
// spec.md §4.3 describes: "close either commits or, on exception in the
// calling code, propagates the exception after committing what was
// already applied in-memory."
func (eng *Engine) Run(ctx context.Context, fn func(tx *Transaction) error) error {
	tx, err := eng.Begin()
	if err != nil {
		return err
	}

	var fnErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				tx.Commit(ctx)
				panic(r)
			}
		}()
		fnErr = fn(tx)
	}()

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	return fnErr
}

// Transaction is a single matcher invocation's read/write view.
type Transaction struct {
	eng *Engine

	changed      map[matchstate.Uid]matchstate.UserState
	changedOrder []matchstate.Uid
	logs         []LogEntry
	committed    bool
}

// Get returns uid's current state, or the virtual Initial state if no row
// exists.
func (tx *Transaction) Get(uid matchstate.Uid) matchstate.UserState {
	if s, ok := tx.eng.states[uid]; ok {
		return s
	}
	return matchstate.NewInitial(uid)
}

// Set writes state, updating the live state map and both derived indices
// immediately so subsequent reads in the same transaction observe it.
func (tx *Transaction) Set(state matchstate.UserState) {
	if _, already := tx.changed[state.Uid]; !already {
		tx.changedOrder = append(tx.changedOrder, state.Uid)
	}
	tx.changed[state.Uid] = state

	tx.eng.states[state.Uid] = state
	tx.eng.index.Set(state)
}

// SearchForUser returns the best candidate to ask for a searcher holding
// opinion, or ok=false if nobody is eligible. Per spec.md §4.2 the result
// is always Waiting, Asking (with no reservation), or Active.
func (tx *Transaction) SearchForUser(opinion matchstate.Opinion) (matchstate.UserState, bool) {
	uid, ok := tx.eng.index.Top(opinion)
	if !ok {
		return matchstate.UserState{}, false
	}
	return tx.Get(uid), true
}

// FirstScheduled returns the state with the earliest due sched, or
// ok=false if nothing is scheduled.
func (tx *Transaction) FirstScheduled() (matchstate.UserState, bool) {
	uid, _, ok := tx.eng.index.FirstScheduled()
	if !ok {
		return matchstate.UserState{}, false
	}
	return tx.Get(uid), true
}

// Log appends a structured event to the transaction's write batch.
func (tx *Transaction) Log(ts clock.Timestamp, kind string, fields map[string]any) {
	tx.logs = append(tx.logs, LogEntry{Ts: ts, Kind: kind, Fields: fields})
}

// Commit flushes the accumulated write batch to the engine's asynchronous
// writer and closes the transaction. It is idempotent: a second Commit on
// the same Transaction is a no-op.
func (tx *Transaction) Commit(ctx context.Context) error {
	if tx.committed {
		return nil
	}
	tx.committed = true

	tx.eng.mu.Lock()
	if !tx.eng.open {
		tx.eng.mu.Unlock()
		return nil
	}
	tx.eng.open = false
	tx.eng.mu.Unlock()

	if len(tx.changedOrder) == 0 && len(tx.logs) == 0 {
		return nil
	}

	batch := make([]matchstate.UserState, 0, len(tx.changedOrder))
	for _, uid := range tx.changedOrder {
		batch = append(batch, tx.changed[uid])
	}

	select {
	case tx.eng.writeCh <- writeJob{batch: batch, logs: tx.logs}:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// PeekFirstScheduled is the driver's "peek" probe (spec.md §5): reading
// outside a transaction is allowed only for this one purpose.
func (eng *Engine) PeekFirstScheduled() (matchstate.Uid, clock.Timestamp, bool) {
	eng.mu.Lock()
	defer eng.mu.Unlock()
	return eng.index.FirstScheduled()
}
