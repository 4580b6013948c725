package ocr

import (
	"context"
	"fmt"
	"image"
	"log"
	"strings"
)

// TextRecognizer is a thin boundary over an external text-recognition
// service. Implementations carry no scoring logic; they return raw detected
// lines only. Backends are selected at construction time, never via runtime
// import probing.
type TextRecognizer interface {
	Name() string
	Available() bool
	Detect(ctx context.Context, img image.Image) ([]string, error)
}

// Chain tries each backend in order and returns the first successful result.
// A backend that is unavailable or errors out is skipped; if none produce a
// result the chain fails with ErrNoOCRBackend.
type Chain struct {
	backends []TextRecognizer
}

func NewChain(backends ...TextRecognizer) *Chain {
	return &Chain{backends: backends}
}

func (c *Chain) Detect(ctx context.Context, img image.Image) ([]string, error) {
	var lastErr error
	for _, b := range c.backends {
		if !b.Available() {
			continue
		}
		lines, err := detectAsync(ctx, b, img)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Printf("ocr backend %s failed, trying next: %v", b.Name(), err)
			lastErr = err
			continue
		}
		return lines, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoOCRBackend, lastErr)
	}
	return nil, ErrNoOCRBackend
}

// detectAsync runs a potentially slow backend call on its own goroutine so a
// cancelled submission does not keep the caller pinned on model inference.
func detectAsync(ctx context.Context, b TextRecognizer, img image.Image) ([]string, error) {
	type result struct {
		lines []string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		lines, err := b.Detect(ctx, img)
		ch <- result{lines, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.lines, r.err
	}
}

// DetectRegions crops each proposed region and feeds it to the chain
// sequentially, returning the first non-empty line set. Falls back to an
// empty slice (not an error) when every region reads blank.
func DetectRegions(ctx context.Context, c *Chain, img image.Image, regions []image.Rectangle) ([]string, error) {
	for _, r := range regions {
		lines, err := c.Detect(ctx, cropRegion(img, r))
		if err != nil {
			return nil, err
		}
		if len(lines) > 0 {
			return lines, nil
		}
	}
	return nil, nil
}

// splitLines trims raw backend output into ordered non-empty lines.
func splitLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln != "" {
			out = append(out, ln)
		}
	}
	return out
}
