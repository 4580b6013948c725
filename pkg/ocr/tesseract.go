package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Tesseract is the primary backend: a local gosseract client per call.
// Clients are cheap to construct and not safe for concurrent reuse, so each
// Detect builds its own.
type Tesseract struct {
	lang string

	probe sync.Once
	ok    bool
}

func NewTesseract(lang string) *Tesseract {
	if lang == "" {
		lang = "eng"
	}
	return &Tesseract{lang: lang}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available probes the local tesseract installation once. A missing or
// broken libtesseract shows up as a panic or empty version string from the
// probe client.
func (t *Tesseract) Available() bool {
	t.probe.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				t.ok = false
			}
		}()
		cl := gosseract.NewClient()
		defer cl.Close()
		t.ok = cl.Version() != ""
	})
	return t.ok
}

func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf, err := encodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("encode for ocr: %w", err)
	}
	cl := gosseract.NewClient()
	defer cl.Close()
	_ = cl.SetLanguage(t.lang)
	_ = cl.SetPageSegMode(gosseract.PSM_SPARSE_TEXT)
	if err := cl.SetImageFromBytes(buf); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	text, err := cl.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w", err)
	}
	return splitLines(text), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
