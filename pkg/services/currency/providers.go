package currency

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RateProvider resolves the rate from one currency to USD as of a date.
// Implementations adapt one external REST API each; the normalizer walks a
// prioritized list of them and stops at the first success.
type RateProvider interface {
	Name() string
	FetchRate(ctx context.Context, currencyCode, isoDate string) (float64, error)
}

func fetchJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// OpenERAPIProvider adapts open.er-api.com, which returns USD-relative rates
// for all currencies at once (current rates only, no historical lookup).
type OpenERAPIProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *OpenERAPIProvider) Name() string { return "open-er-api" }

func (p *OpenERAPIProvider) FetchRate(ctx context.Context, currencyCode, _ string) (float64, error) {
	var payload struct {
		Result string             `json:"result"`
		Rates  map[string]float64 `json:"rates"`
	}
	endpoint := fmt.Sprintf("%s/v6/latest/USD", p.BaseURL)
	if err := fetchJSON(ctx, p.Client, endpoint, &payload); err != nil {
		return 0, err
	}

	// Rates are USD->CUR; invert to get CUR->USD.
	perUSD, ok := payload.Rates[currencyCode]
	if !ok || perUSD == 0 {
		return 0, fmt.Errorf("currency %s not in response", currencyCode)
	}
	return 1 / perUSD, nil
}

// FrankfurterProvider adapts frankfurter.app, which serves ECB reference
// rates with per-date lookups.
type FrankfurterProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *FrankfurterProvider) Name() string { return "frankfurter" }

func (p *FrankfurterProvider) FetchRate(ctx context.Context, currencyCode, isoDate string) (float64, error) {
	var payload struct {
		Rates map[string]float64 `json:"rates"`
	}
	endpoint := fmt.Sprintf("%s/%s?from=%s&to=USD", p.BaseURL, isoDate, url.QueryEscape(currencyCode))
	if err := fetchJSON(ctx, p.Client, endpoint, &payload); err != nil {
		return 0, err
	}

	rate, ok := payload.Rates["USD"]
	if !ok || rate == 0 {
		return 0, fmt.Errorf("currency %s not in response", currencyCode)
	}
	return rate, nil
}

// ExchangerateHostProvider adapts api.exchangerate.host's convert endpoint.
type ExchangerateHostProvider struct {
	BaseURL string
	Client  *http.Client
}

func (p *ExchangerateHostProvider) Name() string { return "exchangerate-host" }

func (p *ExchangerateHostProvider) FetchRate(ctx context.Context, currencyCode, isoDate string) (float64, error) {
	var payload struct {
		Result *float64 `json:"result"`
	}
	endpoint := fmt.Sprintf("%s/convert?from=%s&to=USD&date=%s&amount=1",
		p.BaseURL, url.QueryEscape(currencyCode), isoDate)
	if err := fetchJSON(ctx, p.Client, endpoint, &payload); err != nil {
		return 0, err
	}

	if payload.Result == nil || *payload.Result == 0 {
		return 0, fmt.Errorf("currency %s not in response", currencyCode)
	}
	return *payload.Result, nil
}

// DefaultProviders returns the production chain in priority order. The order
// is a reliability/cost trade-off and must be preserved.
func DefaultProviders(client *http.Client) []RateProvider {
	return []RateProvider{
		&OpenERAPIProvider{BaseURL: "https://open.er-api.com", Client: client},
		&FrankfurterProvider{BaseURL: "https://api.frankfurter.app", Client: client},
		&ExchangerateHostProvider{BaseURL: "https://api.exchangerate.host", Client: client},
	}
}
