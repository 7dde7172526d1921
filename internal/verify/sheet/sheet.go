// Package sheet reads the verification workbook: one header row naming the
// columns, then one row per person to verify.
package sheet

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	pkgerrors "idmatch/pkg/errors"
)

// Column names the reader requires in the header row. Matching is
// case-insensitive and ignores surrounding whitespace.
const (
	ColumnRowID    = "id"
	ColumnSheetID  = "nationality_id"
	ColumnImageURL = "back link"
)

// Row is one spreadsheet row to verify. All cell values are kept as raw
// strings so leading zeros and formatting survive.
type Row struct {
	// Position is the 1-based row number in the sheet; the header is 1,
	// so data starts at 2. Download filenames derive from it.
	Position int

	RowID         string
	NationalityID string
	ImageURL      string
}

// Read opens the workbook at path and returns up to limit data rows from the
// first sheet, in sheet order. limit <= 0 means all rows. Rows with neither
// an id nor a nationality_id are skipped.
func Read(path string, limit int) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeBadRequest,
			fmt.Sprintf("open workbook %s", path))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeBadRequest, "read sheet rows")
	}
	if len(rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "sheet is empty")
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		row := Row{
			Position:      i + 2,
			RowID:         cell(cells, cols[ColumnRowID]),
			NationalityID: cell(cells, cols[ColumnSheetID]),
			ImageURL:      cell(cells, cols[ColumnImageURL]),
		}
		if row.RowID == "" && row.NationalityID == "" {
			continue
		}
		out = append(out, row)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// headerIndex maps required column names to their positions, reporting every
// missing column at once.
func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, required := range []string{ColumnRowID, ColumnSheetID, ColumnImageURL} {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeBadRequest,
			"required columns not found: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func cell(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
