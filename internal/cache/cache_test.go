package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shopmindai/voicematch/internal/cache"
)

func TestLastMessageKeyIsStablePerUid(t *testing.T) {
	assert.Equal(t, "voicematch:last_msg:42", cache.LastMessageKey(42))
	assert.NotEqual(t, cache.LastMessageKey(1), cache.LastMessageKey(2))
}
