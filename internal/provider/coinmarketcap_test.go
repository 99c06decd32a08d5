package provider

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"coinplot/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

var btc = domain.CoinIdentity{ID: 1, Symbol: "BTC", Slug: "bitcoin", Name: "Bitcoin"}

const historicalBody = `{"data":{"BTC":[{"id":1,"quotes":[
	{"time_open":"2025-01-01T00:00:00.000Z","quote":{"USD":{"open":10,"high":12,"low":9,"close":11,"volume":100,"market_cap":1,"timestamp":"2025-01-01T23:59:59.999Z"}}},
	{"time_open":"2025-01-02T00:00:00.000Z","quote":{"USD":{"open":11,"high":13,"low":10,"close":12,"volume":200,"market_cap":1,"timestamp":"2025-01-02T23:59:59.999Z"}}}
]}]}}`

const latestBody = `{"data":{"BTC":[{"id":1,"quote":{"USD":{"open":12,"high":14,"low":11,"close":13,"volume":300,"last_updated":"2025-01-03T10:00:00.000Z"}}}]}}`

const trendingBody = `{"data":[
	{"name":"Bitcoin","symbol":"BTC","quote":{"USD":{"price":97000.5,"percent_change_24h":2.5,"volume_change_24h":-12.3}}},
	{"name":"Pepe","symbol":"PEPE","quote":{"USD":{"price":0.0000123,"percent_change_24h":-8.1,"volume_change_24h":450}}}
]}`

func newTestProvider(t *testing.T, fn roundTripFunc) *CoinMarketCapProvider {
	t.Helper()
	p := NewCoinMarketCapProvider(trace.NewNoopTracerProvider().Tracer("test"), "secret", "http://example", time.Second)
	p.client = &http.Client{Transport: fn}
	return p
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestFetchSeriesMergesHistoricalAndLatest(t *testing.T) {
	t.Parallel()

	var paths []string
	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("X-CMC_PRO_API_KEY") != "secret" {
			t.Fatalf("missing api key header")
		}
		if req.URL.Query().Get("symbol") != "BTC" {
			t.Fatalf("unexpected symbol param: %s", req.URL.RawQuery)
		}
		paths = append(paths, req.URL.Path)
		switch req.URL.Path {
		case historicalPath:
			if req.URL.Query().Get("count") != "100" {
				t.Fatalf("expected count=100, got %s", req.URL.RawQuery)
			}
			return jsonResponse(http.StatusOK, historicalBody), nil
		case latestPath:
			return jsonResponse(http.StatusOK, latestBody), nil
		}
		t.Fatalf("unexpected path: %s", req.URL.Path)
		return nil, nil
	})

	series, err := p.FetchSeries(context.Background(), btc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(paths) != 2 || paths[0] != historicalPath || paths[1] != latestPath {
		t.Fatalf("expected historical then latest, got %v", paths)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(series))
	}
	first := series[0]
	if first.Open != 10 || first.High != 12 || first.Low != 9 || first.Close != 11 || first.Volume != 100 {
		t.Fatalf("unexpected first point: %+v", first)
	}
	last := series[2]
	want := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)
	if !last.Timestamp.Equal(want) || last.Close != 13 {
		t.Fatalf("unexpected latest point: %+v", last)
	}
}

func TestFetchHistoricalHTTPError(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"status":{"error_code":1001,"error_message":"This API Key is invalid."}}`), nil
	})

	_, err := p.FetchSeries(context.Background(), btc)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var up *domain.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %T", err)
	}
	if up.Op != domain.OpHistorical || up.Status != http.StatusUnauthorized {
		t.Fatalf("unexpected upstream error: %+v", up)
	}
	if !strings.Contains(up.Error(), "This API Key is invalid.") {
		t.Fatalf("expected provider message, got %s", up.Error())
	}
}

func TestFetchLatestMalformedPayload(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path == historicalPath {
			return jsonResponse(http.StatusOK, historicalBody), nil
		}
		return jsonResponse(http.StatusOK, `{"data":{"BTC":[{"quote":{"USD":{"open":"oops"}}}]}}`), nil
	})

	_, err := p.FetchSeries(context.Background(), btc)
	var up *domain.UpstreamError
	if !errors.As(err, &up) || up.Op != domain.OpLatest {
		t.Fatalf("expected latest upstream error, got %v", err)
	}
}

func TestFetchHistoricalMissingSymbol(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":{}}`), nil
	})

	_, err := p.FetchHistorical(context.Background(), btc)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestFetchHistoricalTransportError(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})

	_, err := p.FetchHistorical(context.Background(), btc)
	var up *domain.UpstreamError
	if !errors.As(err, &up) || up.Op != domain.OpHistorical || up.Status != 0 {
		t.Fatalf("expected transport upstream error, got %v", err)
	}
}

func TestFetchTrending(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != trendingPath {
			t.Fatalf("unexpected path: %s", req.URL.Path)
		}
		if req.URL.Query().Get("limit") != "20" {
			t.Fatalf("expected limit=20, got %s", req.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, trendingBody), nil
	})

	entries, err := p.FetchTrending(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Symbol != "BTC" || entries[0].Price != 97000.5 || entries[0].VolumeChange24h != -12.3 {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Name != "Pepe" || entries[1].PriceChange24h != -8.1 {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}
}

func TestFetchTrendingMissingField(t *testing.T) {
	t.Parallel()

	p := newTestProvider(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"data":[{"name":"Bitcoin","symbol":"BTC","quote":{"USD":{"price":1}}}]}`), nil
	})

	_, err := p.FetchTrending(context.Background(), 20)
	var up *domain.UpstreamError
	if !errors.As(err, &up) || up.Op != domain.OpTrending {
		t.Fatalf("expected trending upstream error, got %v", err)
	}
	if !strings.Contains(err.Error(), "percent_change_24h") {
		t.Fatalf("expected missing field in message, got %v", err)
	}
}

func TestEscapePath(t *testing.T) {
	tests := map[string]string{
		"BTC":   "BTC",
		"$WELL": "$WELL",
		"A.B":   `A\.B`,
		"X*?":   `X\*\?`,
	}
	for in, want := range tests {
		if got := escapePath(in); got != want {
			t.Fatalf("%s: expected %s, got %s", in, want, got)
		}
	}
}
