// Package frameplan derives deterministic sampling parameters from a frame
// range. The plan drives downstream encoding: which frame becomes the
// thumbnail, and how the filmstrip contact sheet samples and tiles frames.
package frameplan

import "fmt"

// filmstripBuckets is the target number of filmstrip tiles for long ranges.
const filmstripBuckets = 50

// Plan holds the sampling parameters computed from a frame range.
// Plans are value types; identical inputs always produce identical plans.
type Plan struct {
	FrameCount int `json:"frame_count"`
	// Interval is the sampling stride for the filmstrip. For ranges shorter
	// than filmstripBuckets frames it degenerates to FrameCount (one bucket
	// spanning the whole range).
	Interval  int `json:"interval"`
	TileCount int `json:"tile_count"`
	// ThumbFrame is the zero-based index of the thumbnail frame within the
	// range (approximate midpoint).
	ThumbFrame int `json:"thumb_frame"`
}

// Compute builds the sampling plan for the inclusive range [first, last].
func Compute(first, last int) (Plan, error) {
	if last < first {
		return Plan{}, fmt.Errorf("invalid frame range %d-%d: last before first", first, last)
	}

	count := last - first + 1
	interval := count / filmstripBuckets

	tiles := count
	if interval > 0 {
		tiles = count / interval
	} else {
		interval = count
	}

	return Plan{
		FrameCount: count,
		Interval:   interval,
		TileCount:  tiles,
		ThumbFrame: count / 2,
	}, nil
}

// SampleStride returns the filmstrip stride clamped to at least 1, the form
// safe to interpolate into an encoder mod() filter expression.
func (p Plan) SampleStride() int {
	if p.Interval < 1 {
		return 1
	}
	return p.Interval
}
