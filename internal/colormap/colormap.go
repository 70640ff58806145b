// Package colormap converts normalized risk scores to RGB colors for map rendering.
package colormap

// RGB is an 8-bit color triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// anchor is one fixed point of the risk gradient.
type anchor struct {
	pos   float64
	color RGB
}

// The yellow → green → teal → blue → purple gradient. The exact triples are
// load-bearing: rendered output is compared across runs and tools.
var anchors = [5]anchor{
	{0.00, RGB{245, 240, 24}},
	{0.25, RGB{122, 233, 28}},
	{0.50, RGB{42, 201, 92}},
	{0.75, RGB{64, 150, 205}},
	{1.00, RGB{120, 76, 190}},
}

// Colorize maps a risk score to a color by piecewise-linear interpolation over
// the anchor gradient. Scores outside [0,1] are clamped first; a score exactly
// on an anchor returns that anchor's color with no interpolation error.
func Colorize(score float64) RGB {
	if score != score || score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	for i := 0; i < len(anchors)-1; i++ {
		left, right := anchors[i], anchors[i+1]
		if score < left.pos || score > right.pos {
			continue
		}
		if score == left.pos {
			return left.color
		}
		if score == right.pos {
			return right.color
		}
		ratio := (score - left.pos) / (right.pos - left.pos)
		return RGB{
			R: lerp(left.color.R, right.color.R, ratio),
			G: lerp(left.color.G, right.color.G, ratio),
			B: lerp(left.color.B, right.color.B, ratio),
		}
	}
	return anchors[len(anchors)-1].color
}

func lerp(a, b uint8, ratio float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*ratio
	return uint8(v + 0.5)
}

// Hex renders the color as a #rrggbb string.
func (c RGB) Hex() string {
	const digits = "0123456789abcdef"
	return string([]byte{
		'#',
		digits[c.R>>4], digits[c.R&0xf],
		digits[c.G>>4], digits[c.G&0xf],
		digits[c.B>>4], digits[c.B&0xf],
	})
}
