package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel renders every sheet as tab-separated lines prefixed with the
// sheet name and header row.
func extractExcel(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	var out bytes.Buffer
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		writeSheetText(&out, sheet, rows)
	}
	return out.String(), nil
}

// writeSheetText writes a sheet banner, its header row and one tab-joined
// line per data row.
func writeSheetText(out *bytes.Buffer, sheet string, rows [][]string) {
	out.WriteString("Sheet: ")
	out.WriteString(sheet)
	out.WriteByte('\n')
	for i, row := range rows {
		if i == 0 {
			out.WriteString("Header: ")
		}
		out.WriteString(strings.Join(row, "\t"))
		out.WriteByte('\n')
	}
	out.WriteByte('\n')
}
