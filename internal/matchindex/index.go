// Package matchindex maintains the two derived structures described in
// spec.md §4.2: a min-priority queue per opinion of eligible-to-be-asked
// users, and a min-heap of scheduled users keyed by next-wake timestamp.
// Both are strictly derived from the state map — Rebuild reconstructs them
// from scratch and is used by tests to assert that incremental maintenance
// never drifts from a from-scratch build.
package matchindex

import (
	"github.com/shopmindai/voicematch/internal/clock"
	"github.com/shopmindai/voicematch/internal/matchstate"
)

// score is the (class, tiebreak, uid) key byScore orders on. Uid breaks
// ties so Top is deterministic across equal (class, tiebreak) pairs.
type score struct {
	class    matchstate.PriorityClass
	tiebreak int64
	uid      matchstate.Uid
}

func scoreLess(a, b score) bool {
	if a.class != b.class {
		return a.class < b.class
	}
	if a.tiebreak != b.tiebreak {
		return a.tiebreak < b.tiebreak
	}
	return a.uid < b.uid
}

func schedLess(a, b clock.Timestamp) bool { return a < b }

// Index holds the per-opinion priority queues and the scheduled heap.
type Index struct {
	byScore map[matchstate.Opinion]*indexedHeap[matchstate.Uid, score]
	bySched *indexedHeap[matchstate.Uid, clock.Timestamp]
}

// New returns an empty Index.
func New() *Index {
	return &Index{
		byScore: map[matchstate.Opinion]*indexedHeap[matchstate.Uid, score]{
			matchstate.Pro: newIndexedHeap[matchstate.Uid, score](scoreLess),
			matchstate.Con: newIndexedHeap[matchstate.Uid, score](scoreLess),
		},
		bySched: newIndexedHeap[matchstate.Uid, clock.Timestamp](schedLess),
	}
}

// Set applies the update rule for a single state transition: upsert/remove
// in bySched using the derived Sched, then upsert/remove the uid in
// exactly the one opinion bucket it could ever be eligible for
// (opposite of its own opinion), clearing it from the other bucket in
// case a prior tag had left it there.
func (idx *Index) Set(s matchstate.UserState) {
	if ts, ok := s.Sched(); ok {
		idx.bySched.Upsert(s.Uid, ts)
	} else {
		idx.bySched.Remove(s.Uid)
	}

	class, tiebreak, ok := s.Priority()
	eligibleBucket := s.Opinion.Opposite()

	for _, opinion := range []matchstate.Opinion{matchstate.Pro, matchstate.Con} {
		if ok && opinion == eligibleBucket {
			idx.byScore[opinion].Upsert(s.Uid, score{class: class, tiebreak: tiebreak, uid: s.Uid})
		} else {
			idx.byScore[opinion].Remove(s.Uid)
		}
	}
}

// Remove deletes uid from both indices unconditionally.
func (idx *Index) Remove(uid matchstate.Uid) {
	idx.bySched.Remove(uid)
	idx.byScore[matchstate.Pro].Remove(uid)
	idx.byScore[matchstate.Con].Remove(uid)
}

// Top returns the uid with the minimum priority for opinion (i.e. the best
// candidate a searcher holding opinion should ask next), or ok=false if
// the queue is empty.
func (idx *Index) Top(opinion matchstate.Opinion) (matchstate.Uid, bool) {
	return idx.byScore[opinion].Top()
}

// FirstScheduled returns the uid with the earliest sched, or ok=false if
// nothing is scheduled.
func (idx *Index) FirstScheduled() (matchstate.Uid, clock.Timestamp, bool) {
	return idx.bySched.PeekTop()
}

// Rebuild reconstructs an Index from scratch given the full state map.
// Strictly derived indices must equal an incrementally maintained one
// after any sequence of Set calls — that equivalence is what the tests in
// index_test.go check.
func Rebuild(states map[matchstate.Uid]matchstate.UserState) *Index {
	idx := New()
	for _, s := range states {
		idx.Set(s)
	}
	return idx
}
