package sheet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	pkgerrors "idmatch/pkg/errors"
)

type SheetSuite struct {
	suite.Suite
	dir string
}

func TestSheetSuite(t *testing.T) {
	suite.Run(t, new(SheetSuite))
}

func (s *SheetSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

// writeWorkbook creates an xlsx file whose first sheet holds the given rows.
func (s *SheetSuite) writeWorkbook(name string, rows [][]string) string {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	for i, cells := range rows {
		for j, value := range cells {
			ref, err := excelize.CoordinatesToCellName(j+1, i+1)
			s.Require().NoError(err)
			s.Require().NoError(f.SetCellStr(sheetName, ref, value))
		}
	}
	path := filepath.Join(s.dir, name)
	s.Require().NoError(f.SaveAs(path))
	s.Require().NoError(f.Close())
	return path
}

func (s *SheetSuite) TestReadsRowsInOrder() {
	path := s.writeWorkbook("ids.xlsx", [][]string{
		{"id", "nationality_id", "back link"},
		{"u-1", "29801011234567", "http://example.com/a.jpg"},
		{"u-2", "30102251234567", "http://example.com/b.jpg"},
	})

	rows, err := Read(path, 0)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)

	s.Equal(2, rows[0].Position)
	s.Equal("u-1", rows[0].RowID)
	s.Equal("29801011234567", rows[0].NationalityID)
	s.Equal("http://example.com/a.jpg", rows[0].ImageURL)
	s.Equal(3, rows[1].Position)
	s.Equal("u-2", rows[1].RowID)
}

func (s *SheetSuite) TestRowLimit() {
	path := s.writeWorkbook("ids.xlsx", [][]string{
		{"id", "nationality_id", "back link"},
		{"u-1", "29801011234567", ""},
		{"u-2", "30102251234567", ""},
		{"u-3", "29912311234567", ""},
	})

	rows, err := Read(path, 2)
	s.Require().NoError(err)
	s.Len(rows, 2)
}

func (s *SheetSuite) TestHeaderMatchingIsCaseInsensitive() {
	path := s.writeWorkbook("ids.xlsx", [][]string{
		{" ID ", "Nationality_ID", "Back Link"},
		{"u-1", "29801011234567", "http://example.com/a.jpg"},
	})

	rows, err := Read(path, 0)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("u-1", rows[0].RowID)
}

func (s *SheetSuite) TestMissingColumnsReportedTogether() {
	path := s.writeWorkbook("ids.xlsx", [][]string{
		{"id", "something_else"},
		{"u-1", "x"},
	})

	_, err := Read(path, 0)
	s.Require().Error(err)
	s.True(pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
	s.Contains(err.Error(), "nationality_id")
	s.Contains(err.Error(), "back link")
}

func (s *SheetSuite) TestSkipsBlankRows() {
	path := s.writeWorkbook("ids.xlsx", [][]string{
		{"id", "nationality_id", "back link"},
		{"u-1", "29801011234567", ""},
		{"", "", ""},
		{"u-3", "29912311234567", ""},
	})

	rows, err := Read(path, 0)
	s.Require().NoError(err)
	s.Require().Len(rows, 2)
	// The skipped row keeps its position gap.
	s.Equal(2, rows[0].Position)
	s.Equal(4, rows[1].Position)
}

func (s *SheetSuite) TestLeadingZerosPreserved() {
	path := s.writeWorkbook("ids.xlsx", [][]string{
		{"id", "nationality_id", "back link"},
		{"007", "09801011234567", ""},
	})

	rows, err := Read(path, 0)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal("007", rows[0].RowID)
	s.Equal("09801011234567", rows[0].NationalityID)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "absent.xlsx"), 0)
	require.Error(t, err)
	require.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBadRequest))
}
