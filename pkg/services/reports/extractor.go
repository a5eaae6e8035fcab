package reports

import (
	"context"
	"strings"
	"time"

	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/Copanies/copany-finance/pkg/services/currency"
)

// AmountNormalizer converts an amount string in an arbitrary currency into
// the reference currency as of a date.
type AmountNormalizer interface {
	Normalize(ctx context.Context, amountStr, currencyCode, isoDate string) currency.Result
}

// Candidate amount column names in priority order. "extended partner share"
// is the total per-transaction revenue; when present it is used exclusively
// so overlapping revenue columns are not summed twice.
var amountColumnCandidates = []string{
	"extended partner share",
	"partner share",
	"proceeds",
	"revenue",
	"sales",
	"amount",
	"total",
}

const (
	transactionDateColumn = "transaction date"
	currencyColumnExact   = "partner share currency"
)

// Extractor walks filtered report rows and emits canonical financial
// records, resolving date, currency and amount columns by fuzzy header
// matching. Rows are normalized sequentially to bound concurrent outbound
// calls to the rate providers.
type Extractor struct {
	normalizer AmountNormalizer
}

func NewExtractor(normalizer AmountNormalizer) *Extractor {
	return &Extractor{normalizer: normalizer}
}

// Extract converts table rows into financial records. fallbackMonth
// (YYYY-MM) stands in for the transaction date when the table has no date
// column or a row's date does not parse.
func (e *Extractor) Extract(ctx context.Context, table domain.ParsedTable, fallbackMonth string) ([]domain.FinancialRecord, []domain.Diagnostic) {
	var diags []domain.Diagnostic

	dateIdx := findColumn(table.Headers, transactionDateColumn)
	if dateIdx < 0 {
		diags = append(diags, domain.Diagnostic{
			Kind:    domain.DiagNoDateColumn,
			Subject: fallbackMonth,
			Detail:  "no transaction date column, using report month for all rows",
		})
	}

	currencyIdx := findCurrencyColumn(table.Headers)
	amountIdxs := findAmountColumns(table.Headers)
	if currencyIdx < 0 && len(amountIdxs) > 1 {
		// Without a currency column the overlap between revenue columns
		// cannot be reasoned about; keep only the first.
		amountIdxs = amountIdxs[:1]
	}

	var records []domain.FinancialRecord
	seenFallback := map[string]bool{}

	for _, row := range table.Rows {
		monthKey, displayDate, isoDate := resolveRowDate(row, dateIdx, fallbackMonth)

		currencyCode := currency.ReferenceCurrency
		if currencyIdx >= 0 {
			currencyCode = strings.ToUpper(strings.TrimSpace(row[currencyIdx]))
		}

		for _, amountIdx := range amountIdxs {
			result := e.normalizer.Normalize(ctx, row[amountIdx], currencyCode, isoDate)
			if result.Amount == 0 {
				continue
			}
			if result.Degraded() && !seenFallback[currencyCode] {
				seenFallback[currencyCode] = true
				diags = append(diags, domain.Diagnostic{
					Kind:    domain.DiagNormalizationFallback,
					Subject: currencyCode,
					Detail:  "rate resolved from " + string(result.Source) + " fallback",
				})
			}

			records = append(records, domain.FinancialRecord{
				MonthKey:         monthKey,
				DisplayDate:      displayDate,
				AmountOriginal:   currency.ParseAmount(row[amountIdx]),
				CurrencyOriginal: currencyCode,
				AmountNormalized: result.Amount,
				RecordType:       table.Headers[amountIdx],
			})
		}
	}

	return records, diags
}

// resolveRowDate parses the row's transaction date (strict MM/DD/YYYY,
// calendar-validated) and derives the grouping and normalization dates from
// it, or from the report's nominal month when absent or malformed.
func resolveRowDate(row []string, dateIdx int, fallbackMonth string) (monthKey, displayDate, isoDate string) {
	if dateIdx >= 0 {
		raw := strings.TrimSpace(row[dateIdx])
		if parsed, err := time.Parse("01/02/2006", raw); err == nil {
			return parsed.Format("2006-01"), raw, parsed.Format("2006-01-02")
		}
	}
	if fallbackMonth != "" {
		return fallbackMonth, fallbackMonth, fallbackMonth + "-01"
	}
	return "", "", ""
}

func findColumn(headers []string, marker string) int {
	for i, header := range headers {
		if strings.Contains(strings.ToLower(header), marker) {
			return i
		}
	}
	return -1
}

// findCurrencyColumn prefers the exact settlement-currency column over any
// column merely mentioning "currency".
func findCurrencyColumn(headers []string) int {
	for i, header := range headers {
		if strings.ToLower(strings.TrimSpace(header)) == currencyColumnExact {
			return i
		}
	}
	return findColumn(headers, "currency")
}

// findAmountColumns resolves amount columns in candidate priority order.
// An "extended partner share" match is exclusive.
func findAmountColumns(headers []string) []int {
	var idxs []int
	seen := map[int]bool{}
	for _, candidate := range amountColumnCandidates {
		for i, header := range headers {
			lower := strings.ToLower(header)
			// "partner share currency" would otherwise match "partner share".
			if seen[i] || strings.Contains(lower, "currency") || !strings.Contains(lower, candidate) {
				continue
			}
			if candidate == amountColumnCandidates[0] {
				return []int{i}
			}
			seen[i] = true
			idxs = append(idxs, i)
		}
	}
	return idxs
}
