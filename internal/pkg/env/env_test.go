package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withEnv(t *testing.T, values map[string]string) {
	t.Helper()
	prev := Env
	Env = values
	t.Cleanup(func() { Env = prev })
}

func TestGetEnvPrefersLoadedMap(t *testing.T) {
	withEnv(t, map[string]string{"VERIFYBOT_TEST_KEY": "from-file"})
	t.Setenv("VERIFYBOT_TEST_KEY", "from-os")

	assert.Equal(t, "from-file", GetEnv("VERIFYBOT_TEST_KEY", "def"))
}

func TestGetEnvFallsBackToOS(t *testing.T) {
	withEnv(t, map[string]string{})
	t.Setenv("VERIFYBOT_TEST_KEY", "from-os")

	assert.Equal(t, "from-os", GetEnv("VERIFYBOT_TEST_KEY", "def"))
	assert.Equal(t, "def", GetEnv("VERIFYBOT_MISSING_KEY", "def"))
}

func TestTypedGetters(t *testing.T) {
	withEnv(t, map[string]string{
		"B_TRUE":   "true",
		"B_BAD":    "maybe",
		"I_OK":     "42",
		"I_BAD":    "forty",
		"F_OK":     "2.5",
		"D_OK":     "90s",
		"D_BAD":    "soon",
		"LIST_KEY": "123 456,789",
	})

	assert.True(t, GetBool("B_TRUE", false))
	assert.True(t, GetBool("B_BAD", true))
	assert.False(t, GetBool("B_MISSING", false))
	assert.Equal(t, 42, GetInt("I_OK", 1))
	assert.Equal(t, 1, GetInt("I_BAD", 1))
	assert.Equal(t, 2.5, GetFloat("F_OK", 1))
	assert.Equal(t, 90*time.Second, GetDuration("D_OK", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("D_BAD", time.Minute))
	assert.Equal(t, []string{"123", "456", "789"}, GetList("LIST_KEY"))
	assert.Empty(t, GetList("LIST_MISSING"))
}
