package finance

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/Copanies/copany-finance/pkg/services/reports"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// trailingMonths is how far back the task matrix reaches: the current month
// and the 11 before it.
const trailingMonths = 12

// TokenIssuer signs a bearer token for the reporting API.
type TokenIssuer interface {
	Issue(privateKeyPEM, keyID, issuerID string) (string, error)
}

// ReportFetcher settles one report fetch task.
type ReportFetcher interface {
	Fetch(ctx context.Context, token, vendorID string, req domain.ReportRequest) domain.FetchOutcome
}

// Config shapes the task matrix. ReportMatrix maps a report type to the
// region codes it is fetched for.
type Config struct {
	ReportMatrix map[string][]string
	Now          func() time.Time
}

// DefaultReportMatrix covers the detailed per-transaction report for the
// consolidated region.
func DefaultReportMatrix() map[string][]string {
	return map[string][]string{
		"FINANCE_DETAIL": {"Z1"},
	}
}

// Pipeline drives the full (report type x region x month) matrix
// concurrently and folds whatever survived into monthly buckets. One failing
// task never cancels its siblings; every task settles and is accounted for
// in the result envelope.
type Pipeline struct {
	issuer    TokenIssuer
	fetcher   ReportFetcher
	extractor *reports.Extractor
	matrix    map[string][]string
	now       func() time.Time
}

func NewPipeline(issuer TokenIssuer, fetcher ReportFetcher, extractor *reports.Extractor, cfg Config) *Pipeline {
	matrix := cfg.ReportMatrix
	if matrix == nil {
		matrix = DefaultReportMatrix()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		issuer:    issuer,
		fetcher:   fetcher,
		extractor: extractor,
		matrix:    matrix,
		now:       now,
	}
}

// Run executes the whole pipeline for one vendor. Only a token signing
// failure aborts the run; every other condition is captured in the envelope.
func (p *Pipeline) Run(ctx context.Context, creds domain.Credentials, vendorID, productIdentifiers string) (domain.RunResult, error) {
	logger := zerolog.Ctx(ctx)

	tasks := p.buildTasks()

	token, err := p.issuer.Issue(creds.PrivateKeyPEM, creds.KeyID, creds.IssuerID)
	if err != nil {
		return domain.RunResult{}, err
	}

	logger.Info().
		Int("tasks", len(tasks)).
		Str("vendor", vendorID).
		Msg("dispatching finance report fetches")

	// Fan out, one result slot per task; the WaitGroup join never
	// short-circuits on failure.
	outcomes := make([]domain.FetchOutcome, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func(slot int, req domain.ReportRequest) {
			defer wg.Done()
			outcomes[slot] = p.fetcher.Fetch(ctx, token, vendorID, req)
		}(i, task)
	}
	wg.Wait()

	result := domain.RunResult{
		Reports: []domain.ReportResult{},
		Errors:  []domain.ReportError{},
		Buckets: []domain.MonthlyBucket{},
	}
	result.Summary.Total = len(tasks)

	var allRecords []domain.FinancialRecord
	for _, outcome := range outcomes {
		req := outcome.Request
		if !outcome.OK() {
			result.Summary.Failed++
			result.Errors = append(result.Errors, domain.ReportError{
				ReportType: req.ReportType,
				RegionCode: req.RegionCode,
				Month:      req.ReportMonth,
				Reason:     outcome.Err.Error(),
			})
			continue
		}

		report, diags := p.ingest(ctx, outcome, productIdentifiers)
		result.Diagnostics = append(result.Diagnostics, diags...)

		if report.RowsMatched == 0 {
			result.Summary.FilteredOut++
			continue
		}

		result.Summary.Success++
		result.Reports = append(result.Reports, report)
		allRecords = append(allRecords, report.Records...)
	}

	result.Buckets = foldMonthly(allRecords)

	logger.Info().
		Int("success", result.Summary.Success).
		Int("failed", result.Summary.Failed).
		Int("filtered_out", result.Summary.FilteredOut).
		Msg("finance report run settled")

	return result, nil
}

// ingest runs parse -> filter -> extract for one fetched report.
func (p *Pipeline) ingest(ctx context.Context, outcome domain.FetchOutcome, productIdentifiers string) (domain.ReportResult, []domain.Diagnostic) {
	req := outcome.Request
	subject := fmt.Sprintf("%s %s %s", req.ReportType, req.RegionCode, req.ReportMonth)

	var diags []domain.Diagnostic

	parsed := reports.Parse(outcome.RawText)
	if parsed.Degraded && len(parsed.Table.Rows) > 0 {
		diags = append(diags, domain.Diagnostic{
			Kind:    domain.DiagParseDegraded,
			Subject: subject,
			Detail:  "no header row matched, treated first line as header",
		})
	}

	filtered := reports.FilterByProducts(parsed.Table, productIdentifiers)
	if !filtered.ColumnFound && len(parsed.Table.Rows) > 0 {
		diags = append(diags, domain.Diagnostic{
			Kind:    domain.DiagNoProductColumn,
			Subject: subject,
			Detail:  "no product identifier column, report left unfiltered",
		})
	}

	records, extractDiags := p.extractor.Extract(ctx, filtered.Table, req.ReportMonth)
	diags = append(diags, extractDiags...)

	return domain.ReportResult{
		Request:     req,
		RowsParsed:  len(parsed.Table.Rows),
		RowsMatched: len(filtered.Table.Rows),
		Records:     records,
	}, diags
}

// buildTasks is the cartesian product of the configured report matrix and
// the trailing 12 calendar months, in a deterministic order.
func (p *Pipeline) buildTasks() []domain.ReportRequest {
	types := make([]string, 0, len(p.matrix))
	for reportType := range p.matrix {
		types = append(types, reportType)
	}
	sort.Strings(types)

	current := p.now().UTC()
	firstOfMonth := time.Date(current.Year(), current.Month(), 1, 0, 0, 0, 0, time.UTC)

	var tasks []domain.ReportRequest
	for _, reportType := range types {
		for _, region := range p.matrix[reportType] {
			for back := trailingMonths - 1; back >= 0; back-- {
				month := firstOfMonth.AddDate(0, -back, 0)
				tasks = append(tasks, domain.ReportRequest{
					ReportType:  reportType,
					RegionCode:  region,
					ReportMonth: month.Format("2006-01"),
				})
			}
		}
	}
	return tasks
}

// foldMonthly groups records into buckets, ascending by month key. Totals
// are accumulated exactly and only become floats at the boundary.
func foldMonthly(records []domain.FinancialRecord) []domain.MonthlyBucket {
	grouped := map[string][]domain.FinancialRecord{}
	for _, record := range records {
		grouped[record.MonthKey] = append(grouped[record.MonthKey], record)
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	buckets := make([]domain.MonthlyBucket, 0, len(keys))
	for _, key := range keys {
		total := decimal.Zero
		for _, record := range grouped[key] {
			total = total.Add(decimal.NewFromFloat(record.AmountNormalized))
		}
		value, _ := total.Float64()
		buckets = append(buckets, domain.MonthlyBucket{
			MonthKey:        key,
			TotalNormalized: value,
			RecordCount:     len(grouped[key]),
			Records:         grouped[key],
		})
	}
	return buckets
}
