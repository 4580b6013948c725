package ocr

import (
	"image"
	"testing"

	"github.com/disintegration/imaging"
)

func TestProposeRegionsOrder(t *testing.T) {
	img := imaging.New(1920, 1080, image.White.C)
	regions := ProposeRegions(img)
	if len(regions) == 0 {
		t.Fatal("no regions proposed")
	}
	// lower-frame bands come before the full-frame fallback
	first := regions[0]
	if first.Min.Y != 1080*35/100 || first.Max.Y != 1080 {
		t.Fatalf("first region should be the lower band, got %v", first)
	}
	last := regions[len(regions)-1]
	if last != image.Rect(0, 0, 1920, 1080) {
		t.Fatalf("last region should be the full frame, got %v", last)
	}
}

func TestProposeRegionsDeduplicates(t *testing.T) {
	img := imaging.New(1000, 1000, image.White.C)
	regions := ProposeRegions(img)
	seen := map[image.Rectangle]struct{}{}
	for _, r := range regions {
		if _, ok := seen[r]; ok {
			t.Fatalf("duplicate region %v", r)
		}
		seen[r] = struct{}{}
		if r.Empty() {
			t.Fatalf("empty region %v", r)
		}
	}
}

func TestProposeRegionsTinyFrame(t *testing.T) {
	img := imaging.New(64, 48, image.White.C)
	regions := ProposeRegions(img)
	if len(regions) != 1 {
		t.Fatalf("tiny frame should yield just the full frame, got %d regions", len(regions))
	}
	if regions[0] != image.Rect(0, 0, 64, 48) {
		t.Fatalf("unexpected region %v", regions[0])
	}
}

func TestCropRegionFullFramePassthrough(t *testing.T) {
	img := imaging.New(200, 200, image.White.C)
	if got := cropRegion(img, img.Bounds()); got != image.Image(img) {
		t.Fatal("full-frame crop should return the input unchanged")
	}
	cropped := cropRegion(img, image.Rect(0, 100, 200, 200))
	b := cropped.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("crop size %dx%d", b.Dx(), b.Dy())
	}
}
