package ocr

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// maxDimension caps either side of a submitted screenshot before OCR.
const maxDimension = 2048

// Prepare decodes raw screenshot bytes and normalizes them for OCR:
// downscale oversized frames, grayscale, contrast stretch, light denoise
// and a mild sharpening pass.
func Prepare(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	// tiny blur knocks out JPEG speckle before sharpening re-edges the glyphs
	gray = imaging.Blur(gray, 0.4)
	gray = imaging.Sharpen(gray, 0.7)
	return gray, nil
}

// PrepareColor is like Prepare but keeps color information so highlight
// detection can inspect tab saturation. Same size clamp, no filtering.
func PrepareColor(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		img = imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
	}
	return img, nil
}
