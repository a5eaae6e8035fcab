package domain

// ReportRequest identifies one finance report file on the reporting API.
type ReportRequest struct {
	ReportType  string // FINANCE_DETAIL
	RegionCode  string // Z1
	ReportMonth string // 2024-01
}

// FetchOutcome is the settled result of a single report fetch. Err is set on
// failure; RawText holds the decompressed report text on success. Fetch tasks
// always settle to this value so the pipeline can proceed past individual
// failures.
type FetchOutcome struct {
	Request ReportRequest
	RawText string
	Err     error
}

func (o FetchOutcome) OK() bool {
	return o.Err == nil
}

// ParsedTable is a report file reduced to a header row and its data rows.
// Every row has the same arity as Headers.
type ParsedTable struct {
	Headers []string
	Rows    [][]string
}

// FinancialRecord is one normalized revenue line from a report row.
type FinancialRecord struct {
	MonthKey         string  // YYYY-MM, grouping key
	DisplayDate      string  // date string as it appeared upstream
	AmountOriginal   float64
	CurrencyOriginal string
	AmountNormalized float64 // in the reference currency
	RecordType       string  // source amount column label
}

// MonthlyBucket aggregates the records of one calendar month.
type MonthlyBucket struct {
	MonthKey        string
	TotalNormalized float64
	RecordCount     int
	Records         []FinancialRecord
}

// ReportError captures a failed fetch task.
type ReportError struct {
	ReportType string
	RegionCode string
	Month      string
	Reason     string
}

// ReportResult is a successfully ingested report and what it produced.
type ReportResult struct {
	Request     ReportRequest
	RowsParsed  int
	RowsMatched int
	Records     []FinancialRecord
}

// DiagnosticKind classifies non-fatal degradations observed during a run.
type DiagnosticKind string

const (
	DiagParseDegraded         DiagnosticKind = "parse_degraded"
	DiagNormalizationFallback DiagnosticKind = "normalization_fallback"
	DiagNoProductColumn       DiagnosticKind = "no_product_column"
	DiagNoDateColumn          DiagnosticKind = "no_date_column"
)

// Diagnostic is a non-fatal data-quality signal surfaced alongside results.
type Diagnostic struct {
	Kind    DiagnosticKind
	Subject string
	Detail  string
}

// RunSummary counts how the task matrix settled.
type RunSummary struct {
	Total       int
	Success     int
	Failed      int
	FilteredOut int
}

// RunResult is the complete envelope of one pipeline invocation. Errors and
// Summary are always populated, even when Buckets carries useful data.
type RunResult struct {
	Reports     []ReportResult
	Errors      []ReportError
	Summary     RunSummary
	Buckets     []MonthlyBucket
	Diagnostics []Diagnostic
}

// Credentials holds what the token issuer needs for the reporting API.
type Credentials struct {
	PrivateKeyPEM string
	KeyID         string
	IssuerID      string
}
