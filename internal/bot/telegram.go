package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"coinplot/internal/domain"
	"coinplot/internal/service"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v3"
)

const commandTimeout = 60 * time.Second

// Charts generates stored charts.
type Charts interface {
	PriceChart(ctx context.Context, query string) (*domain.ChartArtifact, error)
	TrendingHeatmap(ctx context.Context) (*service.HeatmapResult, error)
}

// StartTelegramBot serves /chart and /heatmap over Telegram long polling.
// It returns nil without starting anything when token is empty.
func StartTelegramBot(token string, charts Charts, logger zerolog.Logger) (*tele.Bot, error) {
	if token == "" {
		logger.Info().Msg("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error().Err(err).Msg("telegram handler failed")
		},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/chart", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(priceChartReply(ctx, charts, c.Args()))
	})

	b.Handle("/heatmap", func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		return c.Send(heatmapReply(ctx, charts))
	})

	logger.Info().Msg("Telegram bot started")
	go b.Start()
	return b, nil
}

// priceChartReply returns the chart as a document, or a text message on failure.
func priceChartReply(ctx context.Context, charts Charts, args []string) any {
	if len(args) == 0 {
		return "Usage: /chart BTC"
	}
	query := strings.TrimSpace(args[0])
	art, err := charts.PriceChart(ctx, query)
	if err != nil {
		return service.PriceChartMessage(query, nil, err)
	}
	return chartDocument(art, service.PriceChartMessage(query, art, nil))
}

func heatmapReply(ctx context.Context, charts Charts) any {
	res, err := charts.TrendingHeatmap(ctx)
	if err != nil {
		return service.HeatmapMessage(nil, err)
	}
	return chartDocument(res.Artifact, "Chart generated at "+res.Artifact.Link)
}

func chartDocument(art *domain.ChartArtifact, caption string) *tele.Document {
	return &tele.Document{
		File:     tele.FromDisk(art.Path),
		FileName: art.ID + ".svg",
		MIME:     "image/svg+xml",
		Caption:  caption,
	}
}
