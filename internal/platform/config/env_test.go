package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	t.Setenv("TV_TEST_STRING", "  value ")
	assert.Equal(t, "value", String("TV_TEST_STRING", "def"))

	t.Setenv("TV_TEST_STRING", "   ")
	assert.Equal(t, "def", String("TV_TEST_STRING", "def"))
}

func TestInt(t *testing.T) {
	t.Setenv("TV_TEST_INT", "42")
	assert.Equal(t, 42, Int("TV_TEST_INT", 1))

	t.Setenv("TV_TEST_INT", "forty-two")
	assert.Equal(t, 1, Int("TV_TEST_INT", 1))

	t.Setenv("TV_TEST_INT", "")
	assert.Equal(t, 1, Int("TV_TEST_INT", 1))
}

func TestFloat(t *testing.T) {
	t.Setenv("TV_TEST_FLOAT", "2.5")
	assert.Equal(t, 2.5, Float("TV_TEST_FLOAT", 1))

	t.Setenv("TV_TEST_FLOAT", "x")
	assert.Equal(t, 1.0, Float("TV_TEST_FLOAT", 1))
}

func TestDuration(t *testing.T) {
	t.Setenv("TV_TEST_DURATION", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, Duration("TV_TEST_DURATION", time.Second))

	t.Setenv("TV_TEST_DURATION", "soon")
	assert.Equal(t, time.Second, Duration("TV_TEST_DURATION", time.Second))
}

func TestBool(t *testing.T) {
	t.Setenv("TV_TEST_BOOL", "true")
	assert.True(t, Bool("TV_TEST_BOOL", false))

	t.Setenv("TV_TEST_BOOL", "maybe")
	assert.False(t, Bool("TV_TEST_BOOL", false))
}
