package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	t.Run("with milliseconds", func(t *testing.T) {
		ts, err := ParseTimestamp("2024-03-11 08:15:30.250")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 11, 8, 15, 30, 250_000_000, time.UTC), ts)
	})

	t.Run("without milliseconds", func(t *testing.T) {
		ts, err := ParseTimestamp("2024-03-11 08:15:30")
		require.NoError(t, err)
		assert.Equal(t, 8, ts.Hour())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseTimestamp("11/03/2024 08:15")
		assert.ErrorIs(t, err, ErrFormat)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := ParseTimestamp("")
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestTimeDiffSeconds(t *testing.T) {
	t.Parallel()

	diff, err := TimeDiffSeconds("2024-03-11 08:00:00.000", "2024-03-11 08:20:00.000", LayoutMillis)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, diff)

	// reversed order yields a negative diff, not an error
	diff, err = TimeDiffSeconds("2024-03-11 08:20:00.000", "2024-03-11 08:00:00.000", LayoutMillis)
	require.NoError(t, err)
	assert.Equal(t, -1200.0, diff)

	_, err = TimeDiffSeconds("bad", "2024-03-11 08:00:00.000", LayoutMillis)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDiffSeconds_MixedLayouts(t *testing.T) {
	t.Parallel()

	diff, err := DiffSeconds("2024-03-11 08:00:00", "2024-03-11 08:00:30.500")
	require.NoError(t, err)
	assert.Equal(t, 30.5, diff)
}

func TestIsWeekday(t *testing.T) {
	t.Parallel()

	// 2024-03-11 is a Monday, 2024-03-16 a Saturday
	weekday, err := IsWeekday("2024-03-11 09:00:00.000")
	require.NoError(t, err)
	assert.True(t, weekday)

	weekday, err = IsWeekday("2024-03-16 09:00:00.000")
	require.NoError(t, err)
	assert.False(t, weekday)
}

func TestHourAndDate(t *testing.T) {
	t.Parallel()

	hour, err := HourOf("2024-03-11 17:45:10.000")
	require.NoError(t, err)
	assert.Equal(t, 17, hour)

	date, err := DateOf("2024-03-11 17:45:10.000")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-11", date)
}
