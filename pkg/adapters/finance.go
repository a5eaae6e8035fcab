package adapters

import (
	"time"

	"github.com/Copanies/copany-finance/pkg/models/api"
	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/Copanies/copany-finance/pkg/models/store"
)

func MapRunResultDomainToApi(result domain.RunResult) api.ReportRunResponse {
	resp := api.ReportRunResponse{
		Success:   true,
		Reports:   []api.ReportEntry{},
		Errors:    []api.ReportError{},
		ChartData: []api.MonthlyBucket{},
		Summary: api.RunSummary{
			Total:       result.Summary.Total,
			Success:     result.Summary.Success,
			Failed:      result.Summary.Failed,
			FilteredOut: result.Summary.FilteredOut,
		},
	}

	for _, r := range result.Reports {
		resp.Reports = append(resp.Reports, api.ReportEntry{
			ReportType:  r.Request.ReportType,
			RegionCode:  r.Request.RegionCode,
			Month:       r.Request.ReportMonth,
			RowsParsed:  r.RowsParsed,
			RowsMatched: r.RowsMatched,
			RecordCount: len(r.Records),
		})
	}
	for _, e := range result.Errors {
		resp.Errors = append(resp.Errors, api.ReportError(e))
	}
	for _, b := range result.Buckets {
		resp.ChartData = append(resp.ChartData, MapMonthlyBucketDomainToApi(b))
	}
	for _, d := range result.Diagnostics {
		resp.Diagnostics = append(resp.Diagnostics, api.Diagnostic{
			Kind:    string(d.Kind),
			Subject: d.Subject,
			Detail:  d.Detail,
		})
	}

	return resp
}

func MapMonthlyBucketDomainToApi(bucket domain.MonthlyBucket) api.MonthlyBucket {
	out := api.MonthlyBucket{
		MonthKey:        bucket.MonthKey,
		TotalNormalized: bucket.TotalNormalized,
		RecordCount:     bucket.RecordCount,
		Records:         []api.FinancialRecord{},
	}
	for _, r := range bucket.Records {
		out.Records = append(out.Records, api.FinancialRecord(r))
	}
	return out
}

func MapRunResultDomainToStore(runID, vendorID string, result domain.RunResult) (store.PipelineRun, []store.MonthlyTotal, []store.ReportFailure) {
	run := store.PipelineRun{
		ID:          runID,
		VendorID:    vendorID,
		TotalTasks:  result.Summary.Total,
		SuccessWork: result.Summary.Success,
		FailedWork:  result.Summary.Failed,
		FilteredOut: result.Summary.FilteredOut,
		CreatedAt:   time.Now().UTC(),
	}

	totals := make([]store.MonthlyTotal, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		totals = append(totals, store.MonthlyTotal{
			RunID:           runID,
			MonthKey:        b.MonthKey,
			TotalNormalized: b.TotalNormalized,
			RecordCount:     b.RecordCount,
		})
	}

	failures := make([]store.ReportFailure, 0, len(result.Errors))
	for _, e := range result.Errors {
		failures = append(failures, store.ReportFailure{
			RunID:      runID,
			ReportType: e.ReportType,
			RegionCode: e.RegionCode,
			Month:      e.Month,
			Reason:     e.Reason,
		})
	}

	return run, totals, failures
}
