package clock_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopmindai/voicematch/internal/clock"
)

func TestAddSubRoundTrip(t *testing.T) {
	ts := clock.Timestamp(1000)
	d := clock.Seconds(60)

	got := ts.Add(d)
	assert.Equal(t, clock.Timestamp(1060), got)
	assert.Equal(t, d, got.Sub(ts))
}

func TestOrdering(t *testing.T) {
	a := clock.Timestamp(10)
	b := clock.Timestamp(20)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
}

func TestMinMax(t *testing.T) {
	a := clock.Timestamp(5)
	b := clock.Timestamp(9)

	assert.Equal(t, a, clock.Min(a, b))
	assert.Equal(t, b, clock.Max(a, b))
}

func TestDurationNeg(t *testing.T) {
	d := clock.Seconds(19)
	assert.Equal(t, clock.Seconds(-19), d.Neg())
}
