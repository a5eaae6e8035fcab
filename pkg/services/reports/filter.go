package reports

import (
	"strings"

	"github.com/Copanies/copany-finance/pkg/models/domain"
)

// Column names that may carry the product identifier, most specific first.
var productColumnCandidates = []string{
	"vendor identifier",
	"sku",
	"app sku",
	"product identifier",
	"bundle id",
}

// FilterResult reports whether a product column was found alongside the
// filtered table. Without a column the table passes through unfiltered;
// over-including beats silently returning nothing.
type FilterResult struct {
	Table       domain.ParsedTable
	ColumnFound bool
	ColumnName  string
}

// FilterByProducts narrows rows to those belonging to any of the comma-joined
// product identifiers. Matching is permissive: exact, substring in either
// direction, or a dot-segment prefix in either direction, so org.acme.App
// matches org.acme.App.InAppItem.
func FilterByProducts(table domain.ParsedTable, productIdentifiers string) FilterResult {
	idents := parseIdentifiers(productIdentifiers)
	if len(idents) == 0 {
		return FilterResult{Table: table}
	}

	colIdx, colName := findProductColumn(table.Headers)
	if colIdx < 0 {
		return FilterResult{Table: table}
	}

	filtered := domain.ParsedTable{Headers: table.Headers, Rows: [][]string{}}
	for _, row := range table.Rows {
		value := strings.ToLower(strings.TrimSpace(row[colIdx]))
		for _, ident := range idents {
			if matchesIdentifier(value, ident) {
				filtered.Rows = append(filtered.Rows, row)
				break
			}
		}
	}

	return FilterResult{Table: filtered, ColumnFound: true, ColumnName: colName}
}

func parseIdentifiers(csv string) []string {
	var idents []string
	for _, part := range strings.Split(csv, ",") {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			idents = append(idents, trimmed)
		}
	}
	return idents
}

func findProductColumn(headers []string) (int, string) {
	for _, candidate := range productColumnCandidates {
		for i, header := range headers {
			if strings.Contains(strings.ToLower(header), candidate) {
				return i, header
			}
		}
	}
	return -1, ""
}

func matchesIdentifier(value, ident string) bool {
	if value == "" {
		return false
	}
	if value == ident {
		return true
	}
	if strings.Contains(value, ident) || strings.Contains(ident, value) {
		return true
	}
	return strings.HasPrefix(value, ident+".") || strings.HasPrefix(ident, value+".")
}
