package ocr

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"math"

	// Register decoders for the formats the downloader accepts.
	_ "image/png"
)

// rotationThreshold is the baseline angle, in degrees, beyond which a scan
// is treated as sideways and re-read after a quarter turn.
const rotationThreshold = 45.0

// TextReader reads text from an image, correcting sideways scans: when the
// first annotation's baseline angle exceeds the threshold, the image is
// rotated a quarter turn and re-detected. Any failure during correction
// falls back to the uncorrected text.
type TextReader struct {
	client Client
	logger *slog.Logger
}

func NewTextReader(client Client, logger *slog.Logger) *TextReader {
	return &TextReader{client: client, logger: logger}
}

func (r *TextReader) Text(ctx context.Context, img []byte) (string, error) {
	ann, err := r.client.DetectText(ctx, img)
	if err != nil {
		return "", err
	}

	angle := baselineAngle(ann.Vertices)
	if math.Abs(angle) <= rotationThreshold {
		return ann.Text, nil
	}

	rotated, err := rotateQuarter(img, angle > 0)
	if err != nil {
		r.logger.WarnContext(ctx, "rotation correction failed, keeping original text",
			"error", err.Error())
		return ann.Text, nil
	}
	corrected, err := r.client.DetectText(ctx, rotated)
	if err != nil {
		r.logger.WarnContext(ctx, "re-detection after rotation failed, keeping original text",
			"error", err.Error())
		return ann.Text, nil
	}
	return corrected.Text, nil
}

// baselineAngle returns the angle in degrees of the first annotation's top
// edge. Zero when there are not enough vertices to tell.
func baselineAngle(vertices []Vertex) float64 {
	if len(vertices) < 2 {
		return 0
	}
	dy := float64(vertices[1].Y - vertices[0].Y)
	dx := float64(vertices[1].X - vertices[0].X)
	return math.Atan2(dy, dx) * 180 / math.Pi
}

// rotateQuarter turns the image 90°. A positive baseline angle means the
// text runs downward, so the image turns counterclockwise; negative turns
// clockwise. Output is re-encoded as JPEG regardless of input format.
func rotateQuarter(data []byte, counterclockwise bool) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dy(), bounds.Dx()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if counterclockwise {
				dst.Set(y-bounds.Min.Y, bounds.Max.X-1-x, src.At(x, y))
			} else {
				dst.Set(bounds.Max.Y-1-y, x-bounds.Min.X, src.At(x, y))
			}
		}
	}

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
