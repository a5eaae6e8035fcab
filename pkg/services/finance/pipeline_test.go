package finance

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/Copanies/copany-finance/pkg/services/appstore"
	"github.com/Copanies/copany-finance/pkg/services/currency"
	"github.com/Copanies/copany-finance/pkg/services/reports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const canonicalReport = "Transaction Date\tPartner Share Currency\tExtended Partner Share\tVendor Identifier\n" +
	"01/15/2024\tEUR\t10.00\torg.acme.App\n"

type stubIssuer struct {
	err error
}

func (s stubIssuer) Issue(_, _, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "stub-token", nil
}

// stubFetcher serves canned outcomes per report month and falls back to an
// empty report for months it knows nothing about.
type stubFetcher struct {
	byMonth map[string]domain.FetchOutcome
}

func (s *stubFetcher) Fetch(_ context.Context, _, _ string, req domain.ReportRequest) domain.FetchOutcome {
	if outcome, ok := s.byMonth[req.ReportMonth]; ok {
		outcome.Request = req
		return outcome
	}
	return domain.FetchOutcome{Request: req, RawText: ""}
}

type fixedRateProvider struct {
	rate  float64
	calls int
}

func (f *fixedRateProvider) Name() string { return "fixed" }

func (f *fixedRateProvider) FetchRate(_ context.Context, _, _ string) (float64, error) {
	f.calls++
	return f.rate, nil
}

func newTestPipeline(fetcher ReportFetcher, issuer TokenIssuer, rate *fixedRateProvider) *Pipeline {
	normalizer := currency.NewNormalizer([]currency.RateProvider{rate}, currency.NewRateCache())
	extractor := reports.NewExtractor(normalizer)
	return NewPipeline(issuer, fetcher, extractor, Config{
		Now: func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) },
	})
}

func TestPipeline_BuildTasksTrailingYear(t *testing.T) {
	p := newTestPipeline(&stubFetcher{}, stubIssuer{}, &fixedRateProvider{rate: 1})

	tasks := p.buildTasks()
	require.Len(t, tasks, 12)
	assert.Equal(t, "2023-07", tasks[0].ReportMonth)
	assert.Equal(t, "2024-06", tasks[11].ReportMonth)
	for _, task := range tasks {
		assert.Equal(t, "FINANCE_DETAIL", task.ReportType)
		assert.Equal(t, "Z1", task.RegionCode)
	}
}

func TestPipeline_EndToEnd(t *testing.T) {
	fetcher := &stubFetcher{byMonth: map[string]domain.FetchOutcome{
		"2024-01": {RawText: canonicalReport},
		"2024-02": {Err: fmt.Errorf("Not authorized")},
	}}
	rate := &fixedRateProvider{rate: 1.10}
	p := newTestPipeline(fetcher, stubIssuer{}, rate)

	result, err := p.Run(context.Background(), domain.Credentials{}, "vendor", "org.acme.App")
	require.NoError(t, err)

	assert.Equal(t, 12, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Success)
	assert.Equal(t, 1, result.Summary.Failed)
	assert.Equal(t, 10, result.Summary.FilteredOut)

	// Accounting identity over the whole matrix.
	assert.Equal(t, result.Summary.Total,
		len(result.Errors)+result.Summary.FilteredOut+len(result.Reports))

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Not authorized", result.Errors[0].Reason)
	assert.Equal(t, "2024-02", result.Errors[0].Month)

	require.Len(t, result.Buckets, 1)
	bucket := result.Buckets[0]
	assert.Equal(t, "2024-01", bucket.MonthKey)
	assert.Equal(t, 1, bucket.RecordCount)
	assert.InDelta(t, 11.00, bucket.TotalNormalized, 0.0001)
}

func TestPipeline_ForeignIdentifierIsFilteredOutNotFailed(t *testing.T) {
	fetcher := &stubFetcher{byMonth: map[string]domain.FetchOutcome{
		"2024-01": {RawText: canonicalReport},
	}}
	p := newTestPipeline(fetcher, stubIssuer{}, &fixedRateProvider{rate: 1.10})

	result, err := p.Run(context.Background(), domain.Credentials{}, "vendor", "org.other.App")
	require.NoError(t, err)

	assert.Empty(t, result.Reports)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Buckets)
	assert.Equal(t, 12, result.Summary.FilteredOut)
	assert.Zero(t, result.Summary.Failed)
}

func TestPipeline_CredentialFailureAbortsRun(t *testing.T) {
	issuer := stubIssuer{err: fmt.Errorf("%w: bad key", appstore.ErrCredential)}
	p := newTestPipeline(&stubFetcher{}, issuer, &fixedRateProvider{rate: 1})

	_, err := p.Run(context.Background(), domain.Credentials{}, "vendor", "org.acme.App")
	require.Error(t, err)
	assert.ErrorIs(t, err, appstore.ErrCredential)
}

func TestPipeline_FailedTaskDoesNotStopSiblings(t *testing.T) {
	// Every task fails except one; the survivor still produces data.
	byMonth := map[string]domain.FetchOutcome{
		"2024-01": {RawText: canonicalReport},
	}
	for _, month := range []string{"2023-07", "2023-08", "2023-09", "2023-10", "2023-11", "2023-12",
		"2024-02", "2024-03", "2024-04", "2024-05", "2024-06"} {
		byMonth[month] = domain.FetchOutcome{Err: fmt.Errorf("HTTP 500")}
	}
	p := newTestPipeline(&stubFetcher{byMonth: byMonth}, stubIssuer{}, &fixedRateProvider{rate: 1.10})

	result, err := p.Run(context.Background(), domain.Credentials{}, "vendor", "org.acme.App")
	require.NoError(t, err)

	assert.Equal(t, 11, result.Summary.Failed)
	assert.Equal(t, 1, result.Summary.Success)
	require.Len(t, result.Buckets, 1)
	assert.InDelta(t, 11.00, result.Buckets[0].TotalNormalized, 0.0001)
}

func TestPipeline_SharedCacheBoundsProviderCalls(t *testing.T) {
	// Two reports referencing the same (currency, date) resolve one rate.
	fetcher := &stubFetcher{byMonth: map[string]domain.FetchOutcome{
		"2024-01": {RawText: canonicalReport},
		"2024-02": {RawText: canonicalReport},
	}}
	rate := &fixedRateProvider{rate: 1.10}

	// Sequential ingestion after the concurrent fetch phase means the
	// second report always sees the first one's cached rate.
	p := newTestPipeline(fetcher, stubIssuer{}, rate)
	result, err := p.Run(context.Background(), domain.Credentials{}, "vendor", "org.acme.App")
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.Success)
	assert.Equal(t, 1, rate.calls)
}

func TestPipeline_BucketsSortedAscending(t *testing.T) {
	marchReport := "Transaction Date\tPartner Share Currency\tExtended Partner Share\tVendor Identifier\n" +
		"03/10/2024\tUSD\t5.00\torg.acme.App\n"
	fetcher := &stubFetcher{byMonth: map[string]domain.FetchOutcome{
		"2024-03": {RawText: marchReport},
		"2024-01": {RawText: canonicalReport},
	}}
	p := newTestPipeline(fetcher, stubIssuer{}, &fixedRateProvider{rate: 1.10})

	result, err := p.Run(context.Background(), domain.Credentials{}, "vendor", "org.acme.App")
	require.NoError(t, err)

	require.Len(t, result.Buckets, 2)
	assert.Equal(t, "2024-01", result.Buckets[0].MonthKey)
	assert.Equal(t, "2024-03", result.Buckets[1].MonthKey)

	for _, bucket := range result.Buckets {
		total := 0.0
		for _, record := range bucket.Records {
			total += record.AmountNormalized
		}
		assert.InDelta(t, bucket.TotalNormalized, total, 0.0001)
		assert.Equal(t, len(bucket.Records), bucket.RecordCount)
	}
}
