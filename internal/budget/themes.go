package budget

// huePalette lists the hues handed out to new personas, in order. Hues are
// spread around the color wheel so neighbouring personas stay distinguishable.
var huePalette = []int{210, 340, 120, 30, 270, 180, 60, 300, 0, 150}

// hueSpreadStep is used once the palette is exhausted; coprime with 360 so
// successive assignments keep walking new positions.
const hueSpreadStep = 47

// nextHue picks the first palette hue not already assigned, falling back to
// an arithmetic spread when every palette hue is taken.
func nextHue(themes map[string]int) int {
	inUse := make(map[int]bool, len(themes))
	for _, h := range themes {
		inUse[h] = true
	}
	for _, h := range huePalette {
		if !inUse[h] {
			return h
		}
	}
	return (len(themes) * hueSpreadStep) % 360
}

// normalizeHue wraps an arbitrary hue into [0, 359].
func normalizeHue(hue int) int {
	hue %= 360
	if hue < 0 {
		hue += 360
	}
	return hue
}
