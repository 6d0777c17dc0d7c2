// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseString(t *testing.T) {
	assert.Equal(t, "fallback", ParseString("MEMED_TEST_UNSET", "fallback"))

	t.Setenv("MEMED_TEST_STR", "value")
	assert.Equal(t, "value", ParseString("MEMED_TEST_STR", "fallback"))

	t.Setenv("MEMED_TEST_EMPTY", "")
	assert.Equal(t, "fallback", ParseString("MEMED_TEST_EMPTY", "fallback"))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 42, ParseInt("MEMED_TEST_UNSET", 42))

	t.Setenv("MEMED_TEST_INT", "300")
	assert.Equal(t, 300, ParseInt("MEMED_TEST_INT", 42))

	t.Setenv("MEMED_TEST_INT_BAD", "not-a-number")
	assert.Equal(t, 42, ParseInt("MEMED_TEST_INT_BAD", 42))
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 15*time.Second, ParseDuration("MEMED_TEST_UNSET", 15*time.Second))

	t.Setenv("MEMED_TEST_DUR", "30s")
	assert.Equal(t, 30*time.Second, ParseDuration("MEMED_TEST_DUR", 15*time.Second))

	t.Setenv("MEMED_TEST_DUR_BAD", "soon")
	assert.Equal(t, 15*time.Second, ParseDuration("MEMED_TEST_DUR_BAD", 15*time.Second))
}

func TestParseBool(t *testing.T) {
	assert.True(t, ParseBool("MEMED_TEST_UNSET", true))

	t.Setenv("MEMED_TEST_BOOL", "false")
	assert.False(t, ParseBool("MEMED_TEST_BOOL", true))

	t.Setenv("MEMED_TEST_BOOL_ONE", "1")
	assert.True(t, ParseBool("MEMED_TEST_BOOL_ONE", false))

	t.Setenv("MEMED_TEST_BOOL_BAD", "yep")
	assert.True(t, ParseBool("MEMED_TEST_BOOL_BAD", true))
}

func TestParseStringList(t *testing.T) {
	assert.Nil(t, ParseStringList("MEMED_TEST_UNSET", nil))

	t.Setenv("MEMED_TEST_LIST", "http://a.example, http://b.example ,")
	assert.Equal(t, []string{"http://a.example", "http://b.example"},
		ParseStringList("MEMED_TEST_LIST", nil))
}
