package web

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idmatch/internal/verify/models"
)

func render(t *testing.T, page *Page) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderResults(&buf, page))
	return buf.String()
}

func TestRenderEmptyResults(t *testing.T) {
	for _, results := range [][]models.RowResult{nil, {}} {
		out := render(t, &Page{Results: results})
		assert.Contains(t, out, "No results to display")
		assert.NotContains(t, out, "<table")
	}
}

func TestRenderOneRowPerResultInOrder(t *testing.T) {
	out := render(t, &Page{Results: []models.RowResult{
		{Position: 2, RowID: "1", SheetID: "12345", ExtractedID: "12345", Match: true, ImagePath: "a.jpg"},
		{Position: 3, RowID: "2", SheetID: "00678", ExtractedID: "99678", Match: false},
	}})

	assert.Equal(t, 2, strings.Count(out, "<tr>")-1) // minus the header row
	assert.NotContains(t, out, "No results to display")

	// Fields appear verbatim, leading zeros intact, in input order.
	first := strings.Index(out, "12345")
	second := strings.Index(out, "00678")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
}

func TestRenderMatchIndicatorsAreDistinct(t *testing.T) {
	match := render(t, &Page{Results: []models.RowResult{
		{RowID: "1", SheetID: "12345", ExtractedID: "12345", Match: true},
	}})
	mismatch := render(t, &Page{Results: []models.RowResult{
		{RowID: "1", SheetID: "12345", ExtractedID: "67890", Match: false},
	}})

	assert.Contains(t, match, "Match")
	assert.Contains(t, match, "bg-success")
	assert.NotContains(t, match, "bg-danger")
	assert.Contains(t, mismatch, "Mismatch")
	assert.Contains(t, mismatch, "bg-danger")
}

func TestRenderImageReference(t *testing.T) {
	t.Run("with image", func(t *testing.T) {
		out := render(t, &Page{Results: []models.RowResult{
			{RowID: "1", SheetID: "12345", ExtractedID: "12345", Match: true, ImagePath: "a.jpg"},
		}})
		assert.Contains(t, out, `src="/images/a.jpg"`)
		assert.NotContains(t, out, "No image available")
	})

	t.Run("without image", func(t *testing.T) {
		out := render(t, &Page{Results: []models.RowResult{
			{RowID: "1", SheetID: "12345", Match: false, Note: "download failed: timeout"},
		}})
		assert.Contains(t, out, "No image available")
		assert.NotContains(t, out, "<img")
		assert.Contains(t, out, "download failed: timeout")
	})
}

func TestRenderFlashMessages(t *testing.T) {
	out := render(t, &Page{Messages: []models.Flash{
		models.DangerFlash("Error reading Excel file: missing columns"),
		models.SuccessFlash("Processed 0 rows"),
	}})

	// Messages render in order, tagged with their category, even with no
	// results.
	danger := strings.Index(out, "alert-danger")
	success := strings.Index(out, "alert-success")
	require.NotEqual(t, -1, danger)
	require.NotEqual(t, -1, success)
	assert.Less(t, danger, success)
	assert.Contains(t, out, "Error reading Excel file: missing columns")
	assert.Contains(t, out, "No results to display")
}

func TestRenderSingleMatchedRow(t *testing.T) {
	out := render(t, &Page{Results: []models.RowResult{
		{RowID: "1", SheetID: "12345", ExtractedID: "12345", Match: true, ImagePath: "a.jpg"},
	}})

	assert.Contains(t, out, ">1</td>")
	assert.Equal(t, 2, strings.Count(out, "12345"))
	assert.Contains(t, out, "bg-success")
	assert.Contains(t, out, "/images/a.jpg")
}

func TestRenderEscapesHostileText(t *testing.T) {
	out := render(t, &Page{Results: []models.RowResult{
		{RowID: "<script>alert(1)</script>", SheetID: "12345", Match: false},
	}})
	assert.NotContains(t, out, "<script>alert(1)</script>")
}
