package utilities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvDuration(t *testing.T) {
	t.Setenv("TEST_TIMEOUT", "3s")
	assert.Equal(t, 3*time.Second, EnvDuration("TEST_TIMEOUT", time.Second))

	t.Setenv("TEST_TIMEOUT", "soon")
	assert.Equal(t, time.Second, EnvDuration("TEST_TIMEOUT", time.Second))

	t.Setenv("TEST_TIMEOUT", "-5s")
	assert.Equal(t, time.Second, EnvDuration("TEST_TIMEOUT", time.Second))
}

func TestEnvBoolAndInt(t *testing.T) {
	t.Setenv("TEST_FLAG", "1")
	assert.True(t, EnvBool("TEST_FLAG"))
	t.Setenv("TEST_FLAG", "no")
	assert.False(t, EnvBool("TEST_FLAG"))

	t.Setenv("TEST_NUM", "7")
	assert.Equal(t, 7, EnvInt("TEST_NUM", 1))
	t.Setenv("TEST_NUM", "x")
	assert.Equal(t, 1, EnvInt("TEST_NUM", 1))
}

func TestEnvString(t *testing.T) {
	t.Setenv("TEST_STR", "")
	assert.Equal(t, "def", EnvString("TEST_STR", "def"))
	t.Setenv("TEST_STR", "set")
	assert.Equal(t, "set", EnvString("TEST_STR", "def"))
}
