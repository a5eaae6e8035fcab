package api

type ReportRunRequest struct {
	VendorID           string `json:"vendorId"`
	PrivateKey         string `json:"privateKey"`
	KeyID              string `json:"keyId"`
	IssuerID           string `json:"issuerId"`
	ProductIdentifiers string `json:"productIdentifiers"`
}

type ReportError struct {
	ReportType string `json:"reportType"`
	RegionCode string `json:"regionCode"`
	Month      string `json:"month"`
	Reason     string `json:"reason"`
}

type ReportEntry struct {
	ReportType  string `json:"reportType"`
	RegionCode  string `json:"regionCode"`
	Month       string `json:"month"`
	RowsParsed  int    `json:"rowsParsed"`
	RowsMatched int    `json:"rowsMatched"`
	RecordCount int    `json:"recordCount"`
}

type FinancialRecord struct {
	MonthKey         string  `json:"monthKey"`
	DisplayDate      string  `json:"displayDate"`
	AmountOriginal   float64 `json:"amountOriginal"`
	CurrencyOriginal string  `json:"currencyOriginal"`
	AmountNormalized float64 `json:"amountNormalized"`
	RecordType       string  `json:"recordType"`
}

type MonthlyBucket struct {
	MonthKey        string            `json:"monthKey"`
	TotalNormalized float64           `json:"totalNormalized"`
	RecordCount     int               `json:"recordCount"`
	Records         []FinancialRecord `json:"records"`
}

type RunSummary struct {
	Total       int `json:"total"`
	Success     int `json:"success"`
	Failed      int `json:"failed"`
	FilteredOut int `json:"filteredOut"`
}

type Diagnostic struct {
	Kind    string `json:"kind"`
	Subject string `json:"subject"`
	Detail  string `json:"detail,omitempty"`
}

type ReportRunResponse struct {
	Success     bool            `json:"success"`
	Reports     []ReportEntry   `json:"reports"`
	Errors      []ReportError   `json:"errors"`
	Summary     RunSummary      `json:"summary"`
	ChartData   []MonthlyBucket `json:"chartData"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}
