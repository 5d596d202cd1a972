package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSystem_Now(t *testing.T) {
	t.Parallel()

	now := System{}.Now()
	require.Equal(t, time.UTC, now.Location())
	require.WithinDuration(t, time.Now(), now, time.Second)
}

func TestManual(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewManual(start)
	require.Equal(t, start, c.Now())

	c.Advance(4*time.Minute + 59*time.Second)
	require.Equal(t, start.Add(4*time.Minute+59*time.Second), c.Now())

	later := start.Add(time.Hour)
	c.Set(later)
	require.Equal(t, later, c.Now())
}
