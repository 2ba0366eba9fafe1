package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindAnyKey(t *testing.T) {
	t.Parallel()

	t.Run("shallow match wins over deeper one", func(t *testing.T) {
		tree, err := DecodeTree(`{"poi": "outer", "nested": {"poi_name": "inner"}}`)
		require.NoError(t, err)
		v, ok := FindAnyKeyString(tree, []string{"poi_name", "poi"})
		assert.True(t, ok)
		assert.Equal(t, "outer", v)
	})

	t.Run("candidate order at one level", func(t *testing.T) {
		tree, err := DecodeTree(`{"poi": "b", "poi_name": "a"}`)
		require.NoError(t, err)
		v, _ := FindAnyKeyString(tree, []string{"poi_name", "poi"})
		assert.Equal(t, "a", v)
	})

	t.Run("descends through arrays", func(t *testing.T) {
		tree, err := DecodeTree(`{"events": [{"detail": {"poi_name": "plaza"}}]}`)
		require.NoError(t, err)
		v, ok := FindAnyKeyString(tree, []string{"poi_name"})
		assert.True(t, ok)
		assert.Equal(t, "plaza", v)
	})

	t.Run("empty string is not a match", func(t *testing.T) {
		tree, err := DecodeTree(`{"poi_name": "", "inner": {"poi": "fallback"}}`)
		require.NoError(t, err)
		v, ok := FindAnyKeyString(tree, []string{"poi_name", "poi"})
		assert.True(t, ok)
		assert.Equal(t, "fallback", v)
	})

	t.Run("equal-depth siblings resolve in sorted key order", func(t *testing.T) {
		// Map iteration order is randomized per instance, so decode fresh
		// trees and check the resolution never flips.
		for i := 0; i < 20; i++ {
			tree, err := DecodeTree(`{"zebra": {"poi_name": "late"}, "alpha": {"poi_name": "early"}}`)
			require.NoError(t, err)
			v, ok := FindAnyKeyString(tree, []string{"poi_name"})
			require.True(t, ok)
			require.Equal(t, "early", v)
		}
	})

	t.Run("absent", func(t *testing.T) {
		tree, err := DecodeTree(`{"other": 1}`)
		require.NoError(t, err)
		_, ok := FindAnyKey(tree, []string{"poi_name", "poi"})
		assert.False(t, ok)
	})
}

func TestParseVoiceCommands(t *testing.T) {
	t.Parallel()

	commands, err := ParseVoiceCommands(`[{"domain":"navigation","command":"global/navigation"},{"domain":"music"}]`)
	require.NoError(t, err)
	require.Len(t, commands, 2)
	assert.Equal(t, "navigation", commands[0].Domain)
	assert.Equal(t, "global/navigation", commands[0].Command)

	commands, err = ParseVoiceCommands("   ")
	require.NoError(t, err)
	assert.Nil(t, commands)

	_, err = ParseVoiceCommands(`{"domain":"navigation"}`)
	assert.Error(t, err)
}

func TestDestinationLocation(t *testing.T) {
	t.Parallel()

	t.Run("present", func(t *testing.T) {
		status := `[{"name":"Vehicle.Speed","value":"60"},` +
			`{"name":"Vehicle.Travel.OneMap.Navi.DestinationPosition","value":"{\"longitude\":113.264385,\"latitude\":23.129112}"}]`
		loc, ok, err := DestinationLocation(status)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "113.264385,23.129112", loc)
	})

	t.Run("round coordinates keep shortest form", func(t *testing.T) {
		status := `[{"name":"Vehicle.Travel.OneMap.Navi.DestinationPosition","value":"{\"longitude\":113.300000,\"latitude\":23.1}"}]`
		loc, ok, err := DestinationLocation(status)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "113.3,23.1", loc)
	})

	t.Run("signal absent", func(t *testing.T) {
		_, ok, err := DestinationLocation(`[{"name":"Vehicle.Speed","value":"60"}]`)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("empty value", func(t *testing.T) {
		_, ok, err := DestinationLocation(`[{"name":"Vehicle.Travel.OneMap.Navi.DestinationPosition","value":""}]`)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("malformed status", func(t *testing.T) {
		_, _, err := DestinationLocation(`not json`)
		assert.Error(t, err)
	})
}
