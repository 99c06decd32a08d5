package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"coinplot/internal/domain"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	coinmarketcapBaseURL = "https://pro-api.coinmarketcap.com"

	historicalPath = "/v2/cryptocurrency/ohlcv/historical"
	latestPath     = "/v2/cryptocurrency/ohlcv/latest"
	trendingPath   = "/v1/cryptocurrency/trending/latest"

	// historicalCount is the number of samples requested for a price chart.
	historicalCount = 100
)

// CoinMarketCapProvider fetches OHLCV and trending data from the CoinMarketCap pro API.
// Every call is a single attempt; failures surface as *domain.UpstreamError.
type CoinMarketCapProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	tracer  trace.Tracer
}

// NewCoinMarketCapProvider creates a provider whose outbound calls are bounded by timeout.
func NewCoinMarketCapProvider(tracer trace.Tracer, apiKey, baseURL string, timeout time.Duration) *CoinMarketCapProvider {
	if baseURL == "" {
		baseURL = coinmarketcapBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CoinMarketCapProvider{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tracer:  tracer,
	}
}

// FetchSeries returns the last historical samples of coin followed by the
// latest observation.
func (p *CoinMarketCapProvider) FetchSeries(ctx context.Context, coin domain.CoinIdentity) ([]domain.QuotePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coinmarketcap.fetch-series")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", coin.Symbol), attribute.Int("coin_id", coin.ID))

	historical, err := p.FetchHistorical(ctx, coin)
	if err != nil {
		return nil, err
	}
	latest, err := p.FetchLatest(ctx, coin)
	if err != nil {
		return nil, err
	}
	return domain.MergeSeries(historical, latest), nil
}

// FetchHistorical fetches the last historicalCount OHLCV samples for coin.
func (p *CoinMarketCapProvider) FetchHistorical(ctx context.Context, coin domain.CoinIdentity) ([]domain.QuotePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coinmarketcap.fetch-historical")
	defer span.End()

	params := url.Values{}
	params.Set("symbol", coin.Symbol)
	params.Set("count", strconv.Itoa(historicalCount))

	body, err := p.doRequest(ctx, domain.OpHistorical, historicalPath, params)
	if err != nil {
		return nil, err
	}

	// Response shape: {"data": {"BTC": [{"quotes": [{"quote": {"USD": {"open": ..., "timestamp": "..."}}}]}]}}
	quotes := gjson.GetBytes(body, "data."+escapePath(strings.ToUpper(coin.Symbol))+".0.quotes")
	if !quotes.IsArray() {
		return nil, upstreamf(domain.OpHistorical, "missing quotes for %s", coin.Symbol)
	}

	items := quotes.Array()
	points := make([]domain.QuotePoint, 0, len(items))
	for i, item := range items {
		usd := item.Get("quote.USD")
		q, err := parseQuote(usd, "timestamp")
		if err != nil {
			return nil, upstreamf(domain.OpHistorical, "quote %d: %v", i, err)
		}
		points = append(points, q)
	}
	return points, nil
}

// FetchLatest fetches the most recent OHLCV sample for coin. Its timestamp
// is the provider's last_updated field.
func (p *CoinMarketCapProvider) FetchLatest(ctx context.Context, coin domain.CoinIdentity) (domain.QuotePoint, error) {
	ctx, span := p.tracer.Start(ctx, "coinmarketcap.fetch-latest")
	defer span.End()

	params := url.Values{}
	params.Set("symbol", coin.Symbol)

	body, err := p.doRequest(ctx, domain.OpLatest, latestPath, params)
	if err != nil {
		return domain.QuotePoint{}, err
	}

	usd := gjson.GetBytes(body, "data."+escapePath(strings.ToUpper(coin.Symbol))+".0.quote.USD")
	if !usd.IsObject() {
		return domain.QuotePoint{}, upstreamf(domain.OpLatest, "missing latest quote for %s", coin.Symbol)
	}
	q, err := parseQuote(usd, "last_updated")
	if err != nil {
		return domain.QuotePoint{}, upstreamf(domain.OpLatest, "%v", err)
	}
	return q, nil
}

// FetchTrending fetches the current trending coins, bounded by limit.
func (p *CoinMarketCapProvider) FetchTrending(ctx context.Context, limit int) ([]domain.TrendingEntry, error) {
	ctx, span := p.tracer.Start(ctx, "coinmarketcap.fetch-trending")
	defer span.End()

	if limit <= 0 {
		limit = domain.DefaultTrendingLimit
	}
	span.SetAttributes(attribute.Int("limit", limit))

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	body, err := p.doRequest(ctx, domain.OpTrending, trendingPath, params)
	if err != nil {
		return nil, err
	}

	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return nil, upstreamf(domain.OpTrending, "missing data array")
	}

	items := data.Array()
	entries := make([]domain.TrendingEntry, 0, len(items))
	for i, item := range items {
		usd := item.Get("quote.USD")
		name, symbol := item.Get("name"), item.Get("symbol")
		if name.Type != gjson.String || symbol.Type != gjson.String {
			return nil, upstreamf(domain.OpTrending, "entry %d: missing name or symbol", i)
		}
		price, err := number(usd, "price")
		if err != nil {
			return nil, upstreamf(domain.OpTrending, "entry %d: %v", i, err)
		}
		priceChange, err := number(usd, "percent_change_24h")
		if err != nil {
			return nil, upstreamf(domain.OpTrending, "entry %d: %v", i, err)
		}
		volChange, err := number(usd, "volume_change_24h")
		if err != nil {
			return nil, upstreamf(domain.OpTrending, "entry %d: %v", i, err)
		}
		entries = append(entries, domain.TrendingEntry{
			Price:           price,
			Name:            name.String(),
			Symbol:          symbol.String(),
			PriceChange24h:  priceChange,
			VolumeChange24h: volChange,
		})
	}
	return entries, nil
}

func (p *CoinMarketCapProvider) doRequest(ctx context.Context, op, path string, params url.Values) ([]byte, error) {
	u := p.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.UpstreamError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := gjson.GetBytes(body, "status.error_message").String()
		if msg == "" {
			msg = string(body)
		}
		return nil, &domain.UpstreamError{Op: op, Status: resp.StatusCode, Err: errors.New(msg)}
	}
	if !gjson.ValidBytes(body) {
		return nil, upstreamf(op, "invalid json payload")
	}
	return body, nil
}

// parseQuote reads an OHLCV quote object; tsField names the timestamp key.
func parseQuote(usd gjson.Result, tsField string) (domain.QuotePoint, error) {
	var q domain.QuotePoint
	fields := []struct {
		name string
		dst  *float64
	}{
		{"open", &q.Open},
		{"high", &q.High},
		{"low", &q.Low},
		{"close", &q.Close},
		{"volume", &q.Volume},
	}
	for _, f := range fields {
		v, err := number(usd, f.name)
		if err != nil {
			return q, err
		}
		*f.dst = v
	}

	ts := usd.Get(tsField)
	if ts.Type != gjson.String {
		return q, fmt.Errorf("missing field %q", tsField)
	}
	t, err := time.Parse(time.RFC3339, ts.String())
	if err != nil {
		return q, fmt.Errorf("parse %s: %w", tsField, err)
	}
	q.Timestamp = t.UTC()
	return q, nil
}

func number(obj gjson.Result, field string) (float64, error) {
	v := obj.Get(field)
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("missing numeric field %q", field)
	}
	return v.Float(), nil
}

func upstreamf(op, format string, args ...any) error {
	return &domain.UpstreamError{Op: op, Err: fmt.Errorf(format, args...)}
}

// escapePath escapes gjson path metacharacters so a symbol is matched as a literal key.
func escapePath(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '.', '*', '?', '|', '#', '@', '!', '=', '<', '>', '%', '[', ']', '{', '}', '(', ')', ',', ':', '"':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
