package reports

import (
	"strings"

	"github.com/Copanies/copany-finance/pkg/models/domain"
)

// Finance report files are tab-separated with vendor metadata rows above the
// real header and a totals block below the data. The boundaries are found by
// substring heuristics because the format varies per report type and is not
// contractually stable.
const (
	headerMarkerA = "transaction date"
	headerMarkerB = "settlement date"
	footerMarkerA = "country of sale"
	footerMarkerB = "partner share currency"
)

// ParseResult pairs the table with whether boundary detection had to fall
// back to defaults.
type ParseResult struct {
	Table    domain.ParsedTable
	Degraded bool
}

// Parse converts raw report text into a header row and a fenced set of data
// rows. A table with no discoverable header uses line 0 as header regardless
// of semantic correctness; callers must tolerate unexpected headers.
func Parse(raw string) ParseResult {
	lines := strings.Split(raw, "\n")
	if len(lines) == 0 || strings.TrimSpace(raw) == "" {
		return ParseResult{Table: domain.ParsedTable{Headers: []string{}, Rows: [][]string{}}}
	}

	headerIdx, found := findHeader(lines)
	degraded := !found

	headers := splitRow(lines[headerIdx])
	dataStart := headerIdx + 1
	dataEnd := findFooter(lines, dataStart)

	rows := make([][]string, 0, dataEnd-dataStart)
	for _, line := range lines[dataStart:dataEnd] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := splitRow(line)
		if len(row) != len(headers) {
			continue
		}
		rows = append(rows, row)
	}

	return ParseResult{
		Table:    domain.ParsedTable{Headers: headers, Rows: rows},
		Degraded: degraded,
	}
}

// findHeader scans top-down for a line carrying both date markers. Returns
// (0, false) when none exists.
func findHeader(lines []string) (int, bool) {
	for i, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, headerMarkerA) && strings.Contains(lower, headerMarkerB) {
			return i, true
		}
	}
	return 0, false
}

// findFooter scans forward from the first data row for the summary block: a
// line carrying both footer markers, or an empty line followed by one
// carrying either marker. Returns len(lines) when no footer exists.
func findFooter(lines []string, from int) int {
	for i := from; i < len(lines); i++ {
		lower := strings.ToLower(lines[i])
		if strings.Contains(lower, footerMarkerA) && strings.Contains(lower, footerMarkerB) {
			return i
		}
		if strings.TrimSpace(lines[i]) == "" && i+1 < len(lines) {
			next := strings.ToLower(lines[i+1])
			if strings.Contains(next, footerMarkerA) || strings.Contains(next, footerMarkerB) {
				return i
			}
		}
	}
	return len(lines)
}

func splitRow(line string) []string {
	fields := strings.Split(strings.TrimRight(line, "\r"), "\t")
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}
