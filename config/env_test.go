package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvAsTimeDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT_SECONDS", "15")
	assert.Equal(t, 15*time.Second, getEnvAsTimeDuration("TEST_TIMEOUT_SECONDS", time.Second))

	t.Setenv("TEST_TIMEOUT_SUFFIX", "500ms")
	assert.Equal(t, 500*time.Millisecond, getEnvAsTimeDuration("TEST_TIMEOUT_SUFFIX", time.Second))

	t.Setenv("TEST_TIMEOUT_GARBAGE", "soon")
	assert.Equal(t, 2*time.Minute, getEnvAsTimeDuration("TEST_TIMEOUT_GARBAGE", 2*time.Minute))

	assert.Equal(t, 3*time.Second, getEnvAsTimeDuration("TEST_TIMEOUT_UNSET", 3*time.Second))
}
