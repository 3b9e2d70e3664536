package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/calsync/internal/config"
)

func TestComputeWindow(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	w, err := ComputeWindow(now, 90, 7)
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(now.Add(-7*24*time.Hour)))
	assert.True(t, w.End.Equal(now.Add(90*24*time.Hour)))
}

func TestComputeWindow_ZeroDays(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	w, err := ComputeWindow(now, 0, 0)
	require.NoError(t, err)
	assert.True(t, w.Start.Equal(now))
	assert.True(t, w.End.Equal(now))
	assert.True(t, w.Contains(now), "a degenerate window still contains now")
}

func TestComputeWindow_NegativeInputs(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	_, err := ComputeWindow(now, -1, 7)
	require.Error(t, err)
	assert.True(t, config.IsValidation(err))

	_, err = ComputeWindow(now, 90, -1)
	require.Error(t, err)
	assert.True(t, config.IsValidation(err))
}

func TestComputeWindow_BoundaryInclusion(t *testing.T) {
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	w, err := ComputeWindow(now, 1, 0)
	require.NoError(t, err)

	end := now.Add(24 * time.Hour)
	assert.True(t, w.Contains(end), "event starting exactly at the window end is included")
	assert.False(t, w.Contains(end.Add(time.Nanosecond)), "event starting just after the window end is excluded")
}
