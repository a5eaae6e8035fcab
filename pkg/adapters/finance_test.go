package adapters

import (
	"testing"

	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapRunResultDomainToApi(t *testing.T) {
	result := domain.RunResult{
		Reports: []domain.ReportResult{{
			Request:     domain.ReportRequest{ReportType: "FINANCE_DETAIL", RegionCode: "Z1", ReportMonth: "2024-01"},
			RowsParsed:  5,
			RowsMatched: 2,
			Records:     []domain.FinancialRecord{{MonthKey: "2024-01"}, {MonthKey: "2024-01"}},
		}},
		Errors: []domain.ReportError{{Month: "2024-02", Reason: "Not authorized"}},
		Summary: domain.RunSummary{Total: 12, Success: 1, Failed: 1, FilteredOut: 10},
		Buckets: []domain.MonthlyBucket{{
			MonthKey:        "2024-01",
			TotalNormalized: 11.0,
			RecordCount:     1,
			Records:         []domain.FinancialRecord{{MonthKey: "2024-01", AmountNormalized: 11.0}},
		}},
		Diagnostics: []domain.Diagnostic{{Kind: domain.DiagParseDegraded, Subject: "x"}},
	}

	resp := MapRunResultDomainToApi(result)

	assert.True(t, resp.Success)
	require.Len(t, resp.Reports, 1)
	assert.Equal(t, 2, resp.Reports[0].RecordCount)
	require.Len(t, resp.ChartData, 1)
	require.Len(t, resp.ChartData[0].Records, 1)
	assert.Equal(t, "parse_degraded", resp.Diagnostics[0].Kind)
}

func TestMapRunResultDomainToApi_EmptyResultHasNonNilSlices(t *testing.T) {
	resp := MapRunResultDomainToApi(domain.RunResult{})

	// The UI depends on arrays, not nulls, in the JSON envelope.
	assert.NotNil(t, resp.Reports)
	assert.NotNil(t, resp.Errors)
	assert.NotNil(t, resp.ChartData)
}

func TestMapRunResultDomainToStore(t *testing.T) {
	result := domain.RunResult{
		Summary: domain.RunSummary{Total: 12, Success: 1, Failed: 1, FilteredOut: 10},
		Buckets: []domain.MonthlyBucket{{MonthKey: "2024-01", TotalNormalized: 11.0, RecordCount: 1}},
		Errors:  []domain.ReportError{{ReportType: "FINANCE_DETAIL", Month: "2024-02", Reason: "boom"}},
	}

	run, totals, failures := MapRunResultDomainToStore("run-1", "vendor-9", result)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, "vendor-9", run.VendorID)
	assert.Equal(t, 12, run.TotalTasks)
	require.Len(t, totals, 1)
	assert.Equal(t, "run-1", totals[0].RunID)
	require.Len(t, failures, 1)
	assert.Equal(t, "boom", failures[0].Reason)
}
