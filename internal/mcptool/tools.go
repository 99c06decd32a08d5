// Package mcptool exposes chart generation as MCP tools.
package mcptool

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServerName = "coinplot"

	PriceChartTool      = "generate_price_chart"
	TrendingHeatmapTool = "generate_trending_heatmap"
)

// ChartGenerator produces charts and reports every outcome as text.
type ChartGenerator interface {
	GeneratePriceChart(ctx context.Context, symbol string) string
	GenerateTrendingHeatmap(ctx context.Context) string
}

// PriceChartArgs are the arguments of generate_price_chart.
type PriceChartArgs struct {
	Symbol string `json:"symbol" jsonschema:"cryptocurrency symbol or slug, for example BTC or bitcoin"`
}

// HeatmapArgs are the (empty) arguments of generate_trending_heatmap.
type HeatmapArgs struct{}

type tools struct {
	tracer trace.Tracer
	log    zerolog.Logger
	charts ChartGenerator
}

// NewServer builds an MCP server with both chart tools registered.
func NewServer(tracer trace.Tracer, logger zerolog.Logger, charts ChartGenerator, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: ServerName, Version: version}, nil)
	Register(server, tracer, logger, charts)
	return server
}

// Register adds the chart tools to server.
func Register(server *mcp.Server, tracer trace.Tracer, logger zerolog.Logger, charts ChartGenerator) {
	t := &tools{tracer: tracer, log: logger, charts: charts}

	mcp.AddTool(server, &mcp.Tool{
		Name: PriceChartTool,
		Description: "Generate an OHLCV candlestick and volume chart for a cryptocurrency " +
			"over its recent history and return a link to the image.",
	}, t.priceChart)

	mcp.AddTool(server, &mcp.Tool{
		Name: TrendingHeatmapTool,
		Description: "Generate a heatmap of the currently trending cryptocurrencies sized by " +
			"24h volume change and colored by 24h price change. Returns a link and the raw data.",
	}, t.trendingHeatmap)
}

// HTTPHandler serves server over the streamable HTTP transport.
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil)
}

func (t *tools) priceChart(ctx context.Context, _ *mcp.CallToolRequest, args PriceChartArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.generate-price-chart")
	defer span.End()
	span.SetAttributes(attribute.String("symbol", args.Symbol))

	t.log.Debug().Str("tool", PriceChartTool).Str("symbol", args.Symbol).Msg("tool called")
	return textResult(t.charts.GeneratePriceChart(ctx, args.Symbol)), nil, nil
}

func (t *tools) trendingHeatmap(ctx context.Context, _ *mcp.CallToolRequest, _ HeatmapArgs) (*mcp.CallToolResult, any, error) {
	ctx, span := t.tracer.Start(ctx, "mcp.generate-trending-heatmap")
	defer span.End()

	t.log.Debug().Str("tool", TrendingHeatmapTool).Msg("tool called")
	return textResult(t.charts.GenerateTrendingHeatmap(ctx)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
