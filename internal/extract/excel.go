package extract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel flattens every sheet to tab-joined rows. Policy schedules
// and benefit tables commonly arrive as spreadsheets.
func extractExcel(content []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", extractionError("open Excel: %v", err)
	}
	defer f.Close()

	var buf strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", extractionError("Excel sheet %q: %v", sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}
	return strings.TrimSpace(buf.String()), nil
}
