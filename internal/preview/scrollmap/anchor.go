package scrollmap

import (
	"math"
	"sort"

	"github.com/dshills/mdview/internal/preview"
)

// Anchor correlates a source offset with a render offset.
type Anchor struct {
	Source int
	Render int
}

// LineOffsets returns the cumulative starting offset of every source line.
// The result has len(heights)+1 entries; the last one is the total height.
// Negative heights count as zero.
func LineOffsets(heights []int) []int {
	offsets := make([]int, len(heights)+1)
	for i, h := range heights {
		offsets[i+1] = offsets[i] + max(h, 0)
	}
	return offsets
}

// BuildAnchors derives the anchor set from the tagged elements of a surface.
//
// The origin anchor (0, 0) is always present. Each element contributes
// (offsets[line], round(top) - editorOffset); lines past the end of the
// buffer clamp to the total height. If any element is usable, a trailing
// anchor (total, ceil(bottom of last element)) is added. Anchors sharing a
// source offset keep the last value seen. The result is sorted by source
// offset and its render offsets are non-decreasing.
func BuildAnchors(offsets []int, elements []preview.TaggedElement, editorOffset int) []Anchor {
	total := offsets[len(offsets)-1]
	last := len(offsets) - 1

	bySource := map[int]int{0: 0}
	var tail *preview.TaggedElement
	for i := range elements {
		el := &elements[i]
		if el.SourceLine < 0 {
			continue
		}
		line := min(el.SourceLine, last)
		bySource[offsets[line]] = int(math.Round(el.Top)) - editorOffset
		tail = el
	}
	if tail != nil && total > 0 {
		bySource[total] = int(math.Ceil(tail.Bottom))
	}

	anchors := make([]Anchor, 0, len(bySource))
	for src, r := range bySource {
		anchors = append(anchors, Anchor{Source: src, Render: r})
	}
	sort.Slice(anchors, func(i, j int) bool {
		return anchors[i].Source < anchors[j].Source
	})

	// Layout preserves document order top to bottom; a tag that measures
	// above its predecessor is pinned to it so the map stays monotonic.
	for i := 1; i < len(anchors); i++ {
		if anchors[i].Render < anchors[i-1].Render {
			anchors[i].Render = anchors[i-1].Render
		}
	}
	return anchors
}

// Interpolate fills a dense forward map from sorted anchors. Index i holds
// the render offset of source offset i, up to the last anchor's source
// offset. Between anchors (a, ra) and (b, rb) the value is
// round((rb*(i-a) + ra*(b-i)) / (b-a)), rounding halves up.
func Interpolate(anchors []Anchor) []int {
	if len(anchors) == 0 {
		return nil
	}
	forward := make([]int, anchors[len(anchors)-1].Source+1)
	for k := 0; k < len(anchors)-1; k++ {
		a, b := anchors[k], anchors[k+1]
		forward[a.Source] = a.Render
		span := b.Source - a.Source
		for i := a.Source + 1; i < b.Source; i++ {
			num := b.Render*(i-a.Source) + a.Render*(b.Source-i)
			forward[i] = roundDiv(num, span)
		}
	}
	end := anchors[len(anchors)-1]
	forward[end.Source] = end.Render
	return forward
}

// roundDiv returns num/den rounded half up. den must be positive.
func roundDiv(num, den int) int {
	return floorDiv(2*num+den, 2*den)
}

func floorDiv(n, d int) int {
	q := n / d
	if n%d != 0 && (n < 0) != (d < 0) {
		q--
	}
	return q
}
