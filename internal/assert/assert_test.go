package assert_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shopmindai/voicematch/internal/assert"
)

func TestTruePanicsOnFalse(t *testing.T) {
	require.Panics(t, func() { assert.True(false) })
}

func TestTrueDoesNotPanicOnTrue(t *testing.T) {
	require.NotPanics(t, func() { assert.True(true) })
}

func TestTruefIncludesMessage(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		require.Contains(t, r.(string), "uid 7")
	}()
	assert.Truef(false, "unexpected state for uid %d", 7)
}
