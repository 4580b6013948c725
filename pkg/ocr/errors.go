package ocr

import "errors"

// ErrInvalidImage is returned when submitted bytes cannot be decoded as an image.
var ErrInvalidImage = errors.New("invalid image")

// ErrNoOCRBackend is returned when neither the primary nor the fallback
// text-recognition backend is available.
var ErrNoOCRBackend = errors.New("no ocr backend available")
