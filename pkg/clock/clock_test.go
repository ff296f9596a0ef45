package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("09:05")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(545), v)
	assert.Equal(t, "09:05", v.String())

	for _, bad := range []string{"9:05", "24:00", "12:60", "ab:cd", "1200", "12:00:00", ""} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestWindowContains(t *testing.T) {
	day := Window{Open: MustParse("09:00"), Close: MustParse("22:00")}
	assert.True(t, day.Contains(MustParse("09:00")))
	assert.True(t, day.Contains(MustParse("14:00")))
	assert.True(t, day.Contains(MustParse("22:00")))
	assert.False(t, day.Contains(MustParse("23:00")))
	assert.False(t, day.Contains(MustParse("08:59")))
	assert.False(t, day.Wraps())

	night := Window{Open: MustParse("18:00"), Close: MustParse("02:00")}
	assert.True(t, night.Wraps())
	assert.True(t, night.Contains(MustParse("23:30")))
	assert.True(t, night.Contains(MustParse("00:15")))
	assert.True(t, night.Contains(MustParse("02:00")))
	assert.False(t, night.Contains(MustParse("02:01")))
	assert.False(t, night.Contains(MustParse("12:00")))
}

func TestFixedClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	c.Advance(90 * time.Minute)
	assert.Equal(t, start.Add(90*time.Minute), c.Now())
}
