package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBilingual(t *testing.T) {
	full := "=== ENGLISH ===\nBring an umbrella.\n\n=== JAPANESE ===\n傘をお持ちください。\n"

	s := ParseBilingual(full)
	assert.True(t, s.IsBilingual)
	assert.Equal(t, "Bring an umbrella.", s.English)
	require.NotNil(t, s.Japanese)
	assert.Equal(t, "傘をお持ちください。", *s.Japanese)
}

func TestParseBilingual_NoJapaneseMarker(t *testing.T) {
	s := ParseBilingual("=== ENGLISH ===\nSunny day at Fushimi Inari.")

	assert.True(t, s.IsBilingual)
	assert.Equal(t, "Sunny day at Fushimi Inari.", s.English)
	assert.Nil(t, s.Japanese)
}

func TestParseBilingual_NoEnglishMarker(t *testing.T) {
	full := "Plain answer\n=== JAPANESE ===\n日本語"

	s := ParseBilingual(full)
	assert.Equal(t, full, s.English)
	require.NotNil(t, s.Japanese)
	assert.Equal(t, "日本語", *s.Japanese)
}

func TestParseBilingual_NoMarkers(t *testing.T) {
	s := ParseBilingual("just text")
	assert.Equal(t, "just text", s.English)
	assert.Nil(t, s.Japanese)
	assert.True(t, s.IsBilingual)
}

func TestMonolingual(t *testing.T) {
	s := Monolingual("Layer up.")
	assert.False(t, s.IsBilingual)
	assert.Nil(t, s.Japanese)
	assert.Equal(t, "Layer up.", s.English)
}
