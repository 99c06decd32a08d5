package service

import (
	"context"
	"fmt"

	"coinplot/internal/domain"
	"coinplot/internal/encode"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CoinResolver maps a user-supplied symbol or slug to a coin identity.
type CoinResolver interface {
	Resolve(query string) (domain.CoinIdentity, error)
}

// MarketProvider fetches raw market data.
type MarketProvider interface {
	FetchSeries(ctx context.Context, coin domain.CoinIdentity) ([]domain.QuotePoint, error)
	FetchTrending(ctx context.Context, limit int) ([]domain.TrendingEntry, error)
}

// ChartRenderer turns market data into image bytes.
type ChartRenderer interface {
	RenderOHLCV(ctx context.Context, coin domain.CoinIdentity, series []domain.QuotePoint) ([]byte, error)
	RenderTreemap(ctx context.Context, blocks []encode.Block) ([]byte, error)
}

// ArtifactStore persists rendered images.
type ArtifactStore interface {
	Save(ctx context.Context, image []byte) (*domain.ChartArtifact, error)
}

// HeatmapResult is a stored treemap plus the snapshot it was drawn from.
type HeatmapResult struct {
	Artifact *domain.ChartArtifact
	Entries  []domain.TrendingEntry
}

// ChartService runs resolve, fetch, encode, render and store for one chart.
// Each call is sequential; concurrent calls share only the store.
type ChartService struct {
	tracer        trace.Tracer
	log           zerolog.Logger
	coins         CoinResolver
	market        MarketProvider
	renderer      ChartRenderer
	store         ArtifactStore
	trendingLimit int
}

func NewChartService(
	tracer trace.Tracer,
	logger zerolog.Logger,
	coins CoinResolver,
	market MarketProvider,
	renderer ChartRenderer,
	store ArtifactStore,
	trendingLimit int,
) *ChartService {
	if trendingLimit <= 0 {
		trendingLimit = domain.DefaultTrendingLimit
	}
	return &ChartService{
		tracer:        tracer,
		log:           logger,
		coins:         coins,
		market:        market,
		renderer:      renderer,
		store:         store,
		trendingLimit: trendingLimit,
	}
}

// PriceChart renders and stores the OHLCV chart of the coin matching query.
func (s *ChartService) PriceChart(ctx context.Context, query string) (*domain.ChartArtifact, error) {
	ctx, span := s.tracer.Start(ctx, "chart-service.price-chart")
	defer span.End()
	span.SetAttributes(attribute.String("query", query), attribute.String("kind", string(domain.ChartOHLCV)))

	coin, err := s.coins.Resolve(query)
	if err != nil {
		return nil, err
	}

	series, err := s.market.FetchSeries(ctx, coin)
	if err != nil {
		return nil, err
	}

	image, err := s.renderer.RenderOHLCV(ctx, coin, series)
	if err != nil {
		return nil, fmt.Errorf("render %s chart: %w", coin.Symbol, err)
	}

	art, err := s.store.Save(ctx, image)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("symbol", coin.Symbol).
		Int("coin_id", coin.ID).
		Int("points", len(series)).
		Str("artifact", art.ID).
		Msg("price chart generated")
	return art, nil
}

// TrendingHeatmap renders and stores a treemap of the current trending coins.
func (s *ChartService) TrendingHeatmap(ctx context.Context) (*HeatmapResult, error) {
	ctx, span := s.tracer.Start(ctx, "chart-service.trending-heatmap")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(domain.ChartTreemap)))

	entries, err := s.market.FetchTrending(ctx, s.trendingLimit)
	if err != nil {
		return nil, err
	}

	image, err := s.renderer.RenderTreemap(ctx, encode.Encode(entries))
	if err != nil {
		return nil, fmt.Errorf("render heatmap: %w", err)
	}

	art, err := s.store.Save(ctx, image)
	if err != nil {
		return nil, err
	}
	s.log.Info().Int("entries", len(entries)).Str("artifact", art.ID).Msg("trending heatmap generated")
	return &HeatmapResult{Artifact: art, Entries: entries}, nil
}

// GeneratePriceChart is PriceChart with its outcome formatted as tool text.
func (s *ChartService) GeneratePriceChart(ctx context.Context, query string) string {
	art, err := s.PriceChart(ctx, query)
	if err != nil {
		s.log.Warn().Err(err).Str("query", query).Msg("price chart failed")
	}
	return PriceChartMessage(query, art, err)
}

// GenerateTrendingHeatmap is TrendingHeatmap with its outcome formatted as tool text.
func (s *ChartService) GenerateTrendingHeatmap(ctx context.Context) string {
	res, err := s.TrendingHeatmap(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("trending heatmap failed")
	}
	return HeatmapMessage(res, err)
}
