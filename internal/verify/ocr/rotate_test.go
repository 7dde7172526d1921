package ocr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient returns scripted annotations in call order.
type fakeClient struct {
	annotations []Annotation
	errs        []error
	images      [][]byte
}

func (f *fakeClient) DetectText(_ context.Context, img []byte) (Annotation, error) {
	i := len(f.images)
	f.images = append(f.images, img)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var ann Annotation
	if i < len(f.annotations) {
		ann = f.annotations[i]
	}
	return ann, err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testJPEG is a small 4x2 image with one distinct corner pixel.
func testJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.White)
		}
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestTextReader(t *testing.T) {
	ctx := context.Background()

	t.Run("level text needs no correction", func(t *testing.T) {
		client := &fakeClient{annotations: []Annotation{
			{Text: "upright", Vertices: []Vertex{{X: 0, Y: 0}, {X: 100, Y: 3}}},
		}}
		r := NewTextReader(client, testLogger())

		text, err := r.Text(ctx, testJPEG(t))
		require.NoError(t, err)
		assert.Equal(t, "upright", text)
		assert.Len(t, client.images, 1)
	})

	t.Run("steep baseline triggers rotation and re-detection", func(t *testing.T) {
		client := &fakeClient{annotations: []Annotation{
			// Baseline pointing nearly straight down: ~90°.
			{Text: "sideways", Vertices: []Vertex{{X: 10, Y: 0}, {X: 11, Y: 100}}},
			{Text: "corrected", Vertices: []Vertex{{X: 0, Y: 0}, {X: 100, Y: 0}}},
		}}
		r := NewTextReader(client, testLogger())

		text, err := r.Text(ctx, testJPEG(t))
		require.NoError(t, err)
		assert.Equal(t, "corrected", text)
		require.Len(t, client.images, 2)

		// The second call got a rotated image: dimensions swap.
		rotated, _, err := image.Decode(bytes.NewReader(client.images[1]))
		require.NoError(t, err)
		assert.Equal(t, 2, rotated.Bounds().Dx())
		assert.Equal(t, 4, rotated.Bounds().Dy())
	})

	t.Run("undecodable image keeps original text", func(t *testing.T) {
		client := &fakeClient{annotations: []Annotation{
			{Text: "sideways", Vertices: []Vertex{{X: 0, Y: 0}, {X: 0, Y: 50}}},
		}}
		r := NewTextReader(client, testLogger())

		text, err := r.Text(ctx, []byte("not an image"))
		require.NoError(t, err)
		assert.Equal(t, "sideways", text)
		assert.Len(t, client.images, 1)
	})

	t.Run("re-detection failure keeps original text", func(t *testing.T) {
		client := &fakeClient{
			annotations: []Annotation{
				{Text: "sideways", Vertices: []Vertex{{X: 0, Y: 0}, {X: 0, Y: 50}}},
				{},
			},
			errs: []error{nil, assert.AnError},
		}
		r := NewTextReader(client, testLogger())

		text, err := r.Text(ctx, testJPEG(t))
		require.NoError(t, err)
		assert.Equal(t, "sideways", text)
	})

	t.Run("detection error propagates", func(t *testing.T) {
		client := &fakeClient{errs: []error{assert.AnError}}
		r := NewTextReader(client, testLogger())

		_, err := r.Text(ctx, testJPEG(t))
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestRotateQuarter(t *testing.T) {
	src := testJPEG(t)

	ccw, err := rotateQuarter(src, true)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(ccw))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())

	cw, err := rotateQuarter(src, false)
	require.NoError(t, err)
	img, _, err = image.Decode(bytes.NewReader(cw))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}
