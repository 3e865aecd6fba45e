package localparse

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pnu-aid/campus-faq/internal/core/domain"
)

// extractXLSX flattens every sheet into tab-separated rows. Schedules and
// fee tables on the boards ship as spreadsheets.
func extractXLSX(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", domain.WrapError(domain.ErrParse, "extract xlsx", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", domain.WrapError(domain.ErrParse, "extract xlsx", err)
		}
		for _, row := range rows {
			line := strings.TrimSpace(strings.Join(row, "\t"))
			if line == "" {
				continue
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String()), nil
}
