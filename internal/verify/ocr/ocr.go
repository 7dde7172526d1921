// Package ocr turns card images into text. The Vision client does the raw
// detection; TextReader layers orientation correction on top, and
// CachedReader avoids paying for the same image twice.
package ocr

import (
	"context"
)

// Vertex is one corner of a detected text block's bounding polygon.
type Vertex struct {
	X int
	Y int
}

// Annotation is the raw OCR output for an image: the full detected text and
// the bounding polygon of the first (whole-page) annotation, which encodes
// the text baseline orientation.
type Annotation struct {
	Text     string
	Vertices []Vertex
}

// Client performs a single text detection call against an OCR backend.
type Client interface {
	DetectText(ctx context.Context, image []byte) (Annotation, error)
}

// Reader produces the final text for an image, whatever correction or
// caching that takes.
type Reader interface {
	Text(ctx context.Context, image []byte) (string, error)
}
