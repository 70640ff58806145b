package colormap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColorizeAnchors(t *testing.T) {
	tests := []struct {
		score float64
		want  RGB
	}{
		{0.00, RGB{245, 240, 24}},
		{0.25, RGB{122, 233, 28}},
		{0.50, RGB{42, 201, 92}},
		{0.75, RGB{64, 150, 205}},
		{1.00, RGB{120, 76, 190}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Colorize(tt.score), "score %v", tt.score)
	}
}

func TestColorizeClampsOutOfRange(t *testing.T) {
	assert.Equal(t, Colorize(0), Colorize(-0.5))
	assert.Equal(t, Colorize(1), Colorize(1.5))
}

func TestColorizeNaNTreatedAsZero(t *testing.T) {
	assert.Equal(t, Colorize(0), Colorize(math.NaN()))
}

func TestColorizeInterpolatesBetweenAnchors(t *testing.T) {
	// Midpoint of the first segment, rounded to nearest.
	got := Colorize(0.125)
	assert.Equal(t, RGB{184, 237, 26}, got)
}

// The top segment runs (64,150,205) -> (120,76,190): blue falls as the
// score rises.
func TestColorizeBlueChannelFallsOnTopSegment(t *testing.T) {
	prev := Colorize(0.75)
	for s := 0.76; s <= 1.0; s += 0.01 {
		cur := Colorize(s)
		assert.LessOrEqual(t, cur.B, prev.B)
		prev = cur
	}
}

func TestHex(t *testing.T) {
	assert.Equal(t, "#2ac95c", RGB{42, 201, 92}.Hex())
	assert.Equal(t, "#000000", RGB{}.Hex())
	assert.Equal(t, "#ffffff", RGB{255, 255, 255}.Hex())
}
