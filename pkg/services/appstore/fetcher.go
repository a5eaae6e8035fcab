package appstore

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://api.appstoreconnect.apple.com"

// Fetcher downloads finance report files from the reporting API. It never
// retries; a task either settles as Success or as Failure with a reason.
type Fetcher struct {
	baseURL string
	client  *http.Client
}

func NewFetcher(baseURL string, client *http.Client) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{baseURL: baseURL, client: client}
}

type apiErrorEnvelope struct {
	Errors []struct {
		Detail string `json:"detail"`
	} `json:"errors"`
}

// Fetch executes one authenticated GET for the (reportType, regionCode,
// reportMonth) tuple and returns a settled outcome. The gzip payload is
// decompressed and decoded as UTF-8 text.
func (f *Fetcher) Fetch(ctx context.Context, token, vendorID string, req domain.ReportRequest) domain.FetchOutcome {
	logger := zerolog.Ctx(ctx)

	query := url.Values{}
	query.Set("filter[vendorNumber]", vendorID)
	query.Set("filter[reportType]", req.ReportType)
	query.Set("filter[regionCode]", req.RegionCode)
	query.Set("filter[reportDate]", req.ReportMonth)

	endpoint := fmt.Sprintf("%s/v1/financeReports?%s", f.baseURL, query.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return failure(req, fmt.Sprintf("failed to build request: %v", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Accept", "application/a-gzip")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return failure(req, fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := readErrorReason(resp)
		logger.Warn().
			Str("report_type", req.ReportType).
			Str("region", req.RegionCode).
			Str("month", req.ReportMonth).
			Int("status", resp.StatusCode).
			Str("reason", reason).
			Msg("finance report fetch failed")
		return failure(req, reason)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure(req, fmt.Sprintf("failed to read response body: %v", err))
	}

	text, err := gunzip(body)
	if err != nil {
		return failure(req, fmt.Sprintf("failed to decompress report: %v", err))
	}

	return domain.FetchOutcome{Request: req, RawText: text}
}

func failure(req domain.ReportRequest, reason string) domain.FetchOutcome {
	return domain.FetchOutcome{Request: req, Err: fmt.Errorf("%s", reason)}
}

// readErrorReason extracts a human-readable message from a non-2xx response:
// the structured errors[0].detail when present, else the raw body, else the
// status text.
func readErrorReason(resp *http.Response) string {
	body, err := io.ReadAll(resp.Body)
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return fmt.Sprintf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var envelope apiErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil &&
		len(envelope.Errors) > 0 && envelope.Errors[0].Detail != "" {
		return envelope.Errors[0].Detail
	}
	return strings.TrimSpace(string(body))
}

// gunzip decompresses a gzip payload. Some stub servers (and a few upstream
// error paths) hand back plain text; pass that through unchanged.
func gunzip(body []byte) (string, error) {
	reader, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		if len(body) > 0 && body[0] != 0x1f {
			return string(body), nil
		}
		return "", err
	}
	defer reader.Close()

	text, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(text), nil
}
