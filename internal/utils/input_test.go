package utils

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringList_AcceptsArrayAndCommaString(t *testing.T) {
	var body struct {
		A StringList `json:"a"`
		B StringList `json:"b"`
	}
	err := json.Unmarshal([]byte(`{"a":[" Plumbing ","Electrical",""],"b":"Delhi, Mumbai ,Delhi"}`), &body)
	require.NoError(t, err)

	assert.Equal(t, StringList{"Plumbing", "Electrical"}, body.A)
	assert.Equal(t, StringList{"Delhi", "Mumbai"}, body.B)
}

func TestStringList_RejectsNumbers(t *testing.T) {
	var l StringList
	assert.Error(t, json.Unmarshal([]byte(`42`), &l))
}

func TestFlexInt(t *testing.T) {
	cases := map[string]int{`5`: 5, `"7"`: 7, `" 3 "`: 3, `5.0`: 5, `-2`: -2}
	for in, want := range cases {
		var n FlexInt
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.Equal(t, want, int(n), in)
	}

	for _, in := range []string{`"five"`, `5.9`, `4.5`, `"2.5"`, `"NaN"`, `1e12`, `true`} {
		var n FlexInt
		assert.Error(t, json.Unmarshal([]byte(in), &n), in)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-03-01T10:30")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)))

	got, err = ParseDate("2026-03-01T10:30:00+05:30")
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 5, 0, 0, 0, time.UTC)))

	_, err = ParseDate("tomorrow")
	assert.Error(t, err)
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("asha@example.in"))
	assert.False(t, ValidEmail("asha@"))
	assert.False(t, ValidEmail("not-an-email"))
}
