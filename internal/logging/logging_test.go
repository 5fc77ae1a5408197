package logging_test

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/shopmindai/voicematch/internal/logging"
)

func TestNewDefaultsToInfoOnBadLevel(t *testing.T) {
	log := logging.New("not-a-level", "")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewHonorsExplicitLevel(t *testing.T) {
	log := logging.New("debug", "")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}
