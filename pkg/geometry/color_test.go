package geometry

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeColor(t *testing.T) {
	for _, c := range Palette {
		got, err := NormalizeColor(c)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	got, err := NormalizeColor("  #ABCDEF ")
	require.NoError(t, err)
	assert.Equal(t, "#abcdef", got)

	got, err = NormalizeColor("123456")
	require.NoError(t, err)
	assert.Equal(t, "#123456", got)

	_, err = NormalizeColor("blue")
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 0x60, G: 0xa5, B: 0xfa, A: 255}, ParseColor(DefaultColor))
	assert.Equal(t, ParseColor(DefaultColor), ParseColor("not-a-color"))
}

func TestBrighten(t *testing.T) {
	// 2.55 * 20 = 51 per channel
	assert.Equal(t, "#93d8ff", Brighten("#60a5fa", 20))
	assert.Equal(t, "#ffffff", Brighten("#f0f0f0", 50))
	assert.Equal(t, "#000000", Brighten("#000000", 0))
}
