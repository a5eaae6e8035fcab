package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenERAPIProvider_InvertsUSDRelativeRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v6/latest/USD", r.URL.Path)
		w.Write([]byte(`{"result":"success","rates":{"EUR":0.9090909090909091,"JPY":150.0}}`))
	}))
	defer server.Close()

	p := &OpenERAPIProvider{BaseURL: server.URL, Client: server.Client()}

	rate, err := p.FetchRate(context.Background(), "EUR", "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 1.10, rate, 0.0001)

	_, err = p.FetchRate(context.Background(), "XXX", "2024-01-15")
	assert.Error(t, err, "missing currency must move the chain along")
}

func TestFrankfurterProvider_DateScopedLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/2024-01-15", r.URL.Path)
		assert.Equal(t, "EUR", r.URL.Query().Get("from"))
		assert.Equal(t, "USD", r.URL.Query().Get("to"))
		w.Write([]byte(`{"base":"EUR","date":"2024-01-15","rates":{"USD":1.0877}}`))
	}))
	defer server.Close()

	p := &FrankfurterProvider{BaseURL: server.URL, Client: server.Client()}

	rate, err := p.FetchRate(context.Background(), "EUR", "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 1.0877, rate, 0.0001)
}

func TestExchangerateHostProvider_ConvertEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/convert", r.URL.Path)
		assert.Equal(t, "GBP", r.URL.Query().Get("from"))
		assert.Equal(t, "2024-01-15", r.URL.Query().Get("date"))
		w.Write([]byte(`{"result":1.27}`))
	}))
	defer server.Close()

	p := &ExchangerateHostProvider{BaseURL: server.URL, Client: server.Client()}

	rate, err := p.FetchRate(context.Background(), "GBP", "2024-01-15")
	require.NoError(t, err)
	assert.InDelta(t, 1.27, rate, 0.0001)
}

func TestProviders_Non200IsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	providers := []RateProvider{
		&OpenERAPIProvider{BaseURL: server.URL, Client: server.Client()},
		&FrankfurterProvider{BaseURL: server.URL, Client: server.Client()},
		&ExchangerateHostProvider{BaseURL: server.URL, Client: server.Client()},
	}
	for _, p := range providers {
		_, err := p.FetchRate(context.Background(), "EUR", "2024-01-15")
		assert.Error(t, err, p.Name())
	}
}
