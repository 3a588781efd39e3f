package memstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLikeMatch(t *testing.T) {
	tests := []struct {
		pattern string
		value   any
		want    bool
	}{
		{"%jo%", "john", true},
		{"%jo%", "banjo", true},
		{"%jo%", "mary", false},
		{"%son", "jason", true},
		{"%son", "sonja", false},
		{"son%", "sonja", true},
		{"son%", "jason", false},
		{"j_n", "jon", true},
		{"j_n", "john", false},
		{"100%", "100% done", true},
		{"a.c", "abc", false}, // regex metacharacters are literals
		{"a.c", "a.c", true},
		{"%5%", 150, true}, // non-string values match through their text form
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, likeMatch(tt.pattern, tt.value),
			"pattern %q against %v", tt.pattern, tt.value)
	}

	assert.False(t, likeMatch("%x%", nil))
}

func TestCompareValuesCrossNumeric(t *testing.T) {
	c, ok := compareValues(int(5), float64(5))
	assert.True(t, ok)
	assert.Zero(t, c)

	c, ok = compareValues(int64(3), 4)
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = compareValues(uint8(10), int32(2))
	assert.True(t, ok)
	assert.Equal(t, 1, c)
}

func TestCompareValuesStringsAndTimes(t *testing.T) {
	c, ok := compareValues("a", "b")
	assert.True(t, ok)
	assert.Equal(t, -1, c)

	earlier := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	later := earlier.Add(time.Hour)
	c, ok = compareValues(later, earlier)
	assert.True(t, ok)
	assert.Equal(t, 1, c)
}

func TestCompareValuesIncomparable(t *testing.T) {
	_, ok := compareValues("5", 5)
	assert.False(t, ok, "strings never coerce to numbers")

	_, ok = compareValues(nil, 1)
	assert.False(t, ok)

	_, ok = compareValues(true, 1)
	assert.False(t, ok)
}

func TestEqualValues(t *testing.T) {
	assert.True(t, equalValues(36, float64(36)), "numbers compare across types after a JSON reload")
	assert.True(t, equalValues("a", "a"))
	assert.False(t, equalValues("a", "b"))
	assert.True(t, equalValues(true, true))
	assert.False(t, equalValues(true, false))
}
