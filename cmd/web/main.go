package main

import (
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/Copanies/copany-finance/pkg/server"
	"github.com/Copanies/copany-finance/pkg/services/appstore"
	"github.com/Copanies/copany-finance/pkg/services/config"
	"github.com/Copanies/copany-finance/pkg/services/currency"
	"github.com/Copanies/copany-finance/pkg/services/finance"
	"github.com/Copanies/copany-finance/pkg/services/reports"
	"github.com/Copanies/copany-finance/pkg/store/postgres/runs"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var cfgPath string

func main() {
	var rootCmd = &cobra.Command{
		Use:   "web",
		Short: "Start the finance report web server",
		RunE:  runServer,
	}

	rootCmd.Flags().StringVarP(&cfgPath, "config", "c", "",
		"Path to an optional YAML config file")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Error loading .env file: %v\n", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := logger.WithContext(cmd.Context())

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	issuer := appstore.NewTokenIssuer(logger)
	fetcher := appstore.NewFetcher(cfg.ReportingBaseURL, http.DefaultClient)
	normalizer := currency.NewNormalizer(currency.DefaultProviders(http.DefaultClient), currency.NewRateCache())
	extractor := reports.NewExtractor(normalizer)
	pipeline := finance.NewPipeline(issuer, fetcher, extractor, finance.Config{
		ReportMatrix: cfg.ReportMatrix,
	})

	databaseURL := cfg.DatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}

	runsStore := runs.NewNoop()
	if databaseURL != "" {
		runsStore, err = runs.NewStore(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("failed to create runs store: %w", err)
		}
		logger.Info().Msg("run persistence enabled")
	} else {
		logger.Info().Msg("no DATABASE_URL configured, run persistence disabled")
	}

	addr := cfg.Addr
	host := os.Getenv("SERVER_HOST")
	port := os.Getenv("SERVER_PORT")
	if host != "" && port != "" {
		addr = net.JoinHostPort(host, port)
	}

	mux := server.ConfigureRouter(server.Config{
		Dependencies: server.Dependencies{
			Pipeline: pipeline,
			Runs:     runsStore,
			Logger:   logger,
		},
	})

	logger.Info().Msgf("starting server on %s", addr)

	return http.ListenAndServe(addr, mux)
}
