package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// ProposeRegions returns an ordered list of crop rectangles likely to contain
// the scoreboard table. Leaderboard tables sit in the lower half to lower
// two-thirds of the frame on every client we have seen, so those bands come
// first; the upper half is a fallback for unusual layouts. The full frame is
// always appended so the list is never empty.
func ProposeRegions(img image.Image) []image.Rectangle {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	full := image.Rect(0, 0, w, h)
	if h < 120 || w < 120 {
		return []image.Rectangle{full}
	}
	cands := []image.Rectangle{
		image.Rect(0, h*35/100, w, h), // lower 65%
		image.Rect(0, h/2, w, h),      // lower 50%
		image.Rect(0, 0, w, h/2),      // upper half fallback
		full,
	}
	out := make([]image.Rectangle, 0, len(cands))
	seen := map[image.Rectangle]struct{}{}
	for _, r := range cands {
		if r.Empty() {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	if len(out) == 0 {
		out = append(out, full)
	}
	return out
}

// cropRegion extracts a proposed region; the full frame passes through
// without a copy.
func cropRegion(img image.Image, r image.Rectangle) image.Image {
	if r == img.Bounds() || r.Empty() {
		return img
	}
	return imaging.Crop(img, r)
}
