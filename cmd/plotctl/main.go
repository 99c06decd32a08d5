// plotctl generates charts from the command line without running the server.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"coinplot/internal/chart"
	"coinplot/internal/coins"
	"coinplot/internal/config"
	"coinplot/internal/provider"
	"coinplot/internal/service"
	"coinplot/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace/noop"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "plotctl",
		Short:         "Generate crypto charts from the command line",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			a.cfg = config.Load()

			if f, _ := cmd.Flags().GetString("coins"); f != "" {
				a.cfg.CoinListFile = f
			}
			if d, _ := cmd.Flags().GetString("out"); d != "" {
				a.cfg.PlotDir = d
			}

			level := zerolog.WarnLevel
			if v, _ := cmd.Flags().GetBool("verbose"); v {
				level = zerolog.DebugLevel
			}
			a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
				Level(level).With().Timestamp().Logger()
			for _, w := range a.cfg.Warnings {
				a.logger.Debug().Msg(w)
			}
			return nil
		},
	}
	root.PersistentFlags().String("coins", "", "coin list file (default: $COIN_LIST_FILE or cmc_coin_list.json)")
	root.PersistentFlags().String("out", "", "artifact folder (default: $PLOT_DIR or plts)")
	root.PersistentFlags().BoolP("verbose", "v", false, "debug logging")

	root.AddCommand(a.resolveCmd(), a.chartCmd(), a.heatmapCmd())
	return root
}

func (a *app) resolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <symbol|slug>",
		Short: "Print the coin identity a query resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := coins.Load(a.cfg.CoinListFile)
			if err != nil {
				return err
			}
			coin, err := dir.Resolve(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(coin)
		},
	}
}

func (a *app) chartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chart <symbol|slug>",
		Short: "Generate an OHLCV price chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.chartService()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), svc.GeneratePriceChart(cmd.Context(), args[0]))
			return nil
		},
	}
}

func (a *app) heatmapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "heatmap",
		Short: "Generate a treemap of trending coins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.chartService()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), svc.GenerateTrendingHeatmap(cmd.Context()))
			return nil
		},
	}
}

func (a *app) chartService() (*service.ChartService, error) {
	dir, err := coins.Load(a.cfg.CoinListFile)
	if err != nil {
		return nil, err
	}
	tracer := noop.NewTracerProvider().Tracer("plotctl")
	timeout := time.Duration(a.cfg.UpstreamTimeoutSecs) * time.Second
	return service.NewChartService(
		tracer,
		a.logger,
		dir,
		provider.NewCoinMarketCapProvider(tracer, a.cfg.CMCKey, a.cfg.CMCBaseURL, timeout),
		chart.NewRenderer(tracer, a.logger, a.cfg.ImageDir),
		store.New(tracer, a.logger, a.cfg.PlotDir, a.cfg.ServerDomain),
		a.cfg.TrendingLimit,
	), nil
}
