package ocr

import (
	"image"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

// Signals are the UI highlight flags read off the screenshot chrome. The
// competition phase is decided from these, not from OCR text: the client
// renders the active tab brighter than its neighbor, which survives
// compression far better than the tab label does.
type Signals struct {
	PrepHighlighted    bool
	WarHighlighted     bool
	HasDaySelector     bool
	DayHighlights      []int // highlighted day buttons, 1..5
	OverallHighlighted bool
}

// Geometry of the scoreboard chrome, as fractions of frame height. The phase
// tabs sit in a strip near the top, the day selector row directly below.
const (
	tabStripTop    = 0.05
	tabStripBottom = 0.14
	dayRowTop      = 0.15
	dayRowBottom   = 0.22

	// A tab counts as highlighted when its mean luminance beats both an
	// absolute floor and its neighbor by a margin.
	highlightFloor  = 110.0
	highlightMargin = 18.0
)

var dayWordRE = regexp.MustCompile(`(?i)\bday\s*[1-5]\b`)

// DetectSignals inspects the tab strip and day selector row of a prepared
// color frame. OCR lines assist only with day-selector presence; highlight
// state itself is purely pixel-based.
func DetectSignals(img image.Image, lines []string) Signals {
	var sig Signals
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 60 || h < 60 {
		return sig
	}

	// Phase tabs: left half prep, right half war.
	stripY0 := int(float64(h) * tabStripTop)
	stripY1 := int(float64(h) * tabStripBottom)
	left := meanLuminance(img, image.Rect(0, stripY0, w/2, stripY1))
	right := meanLuminance(img, image.Rect(w/2, stripY0, w, stripY1))
	if left > highlightFloor && left > right+highlightMargin {
		sig.PrepHighlighted = true
	}
	if right > highlightFloor && right > left+highlightMargin {
		sig.WarHighlighted = true
	}

	// Day selector: six cells (day 1-5 plus overall) across the row below
	// the tabs. Present only in the prep phase layout.
	text := strings.ToLower(strings.Join(lines, " "))
	if dayWordRE.MatchString(text) || strings.Contains(text, "overall") {
		sig.HasDaySelector = true
	}
	rowY0 := int(float64(h) * dayRowTop)
	rowY1 := int(float64(h) * dayRowBottom)
	cells := make([]float64, 6)
	var rowMean float64
	for i := 0; i < 6; i++ {
		x0 := w * i / 6
		x1 := w * (i + 1) / 6
		cells[i] = meanLuminance(img, image.Rect(x0, rowY0, x1, rowY1))
		rowMean += cells[i]
	}
	rowMean /= 6
	for i, c := range cells {
		if c > highlightFloor && c > rowMean+highlightMargin {
			if i == 5 {
				sig.OverallHighlighted = true
			} else {
				sig.DayHighlights = append(sig.DayHighlights, i+1)
			}
			sig.HasDaySelector = true
		}
	}
	return sig
}

// meanLuminance averages the grayscale value of a region, sampling every few
// pixels; exact averages buy nothing here.
func meanLuminance(img image.Image, r image.Rectangle) float64 {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return 0
	}
	crop := imaging.Crop(img, r)
	g := imaging.Grayscale(crop)
	gb := g.Bounds()
	step := 3
	var sum, n float64
	for y := gb.Min.Y; y < gb.Max.Y; y += step {
		for x := gb.Min.X; x < gb.Max.X; x += step {
			c := g.NRGBAAt(x, y)
			sum += float64(c.R)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
