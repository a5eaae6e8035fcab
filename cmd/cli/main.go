package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Copanies/copany-finance/pkg/adapters"
	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/Copanies/copany-finance/pkg/services/appstore"
	"github.com/Copanies/copany-finance/pkg/services/currency"
	"github.com/Copanies/copany-finance/pkg/services/finance"
	"github.com/Copanies/copany-finance/pkg/services/reports"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type fetchCmd struct {
	vendorID string
	keyPath  string
	keyID    string
	issuerID string
	products string
	baseURL  string
}

func main() {
	fc := &fetchCmd{}
	cmd := &cobra.Command{
		Use:   "finance-cli",
		Short: "Run the finance report pipeline once and print the result",
		RunE:  fc.run,
	}

	cmd.Flags().StringVar(&fc.vendorID, "vendor", "", "App Store Connect vendor number")
	cmd.Flags().StringVar(&fc.keyPath, "key", "", "Path to the .p8 private key file")
	cmd.Flags().StringVar(&fc.keyID, "key-id", "", "Key id of the private key")
	cmd.Flags().StringVar(&fc.issuerID, "issuer-id", "", "Issuer id of the API key")
	cmd.Flags().StringVar(&fc.products, "products", "", "Comma-separated product identifiers")
	cmd.Flags().StringVar(&fc.baseURL, "base-url", "", "Override the reporting API base URL")

	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("key-id")
	_ = cmd.MarkFlagRequired("issuer-id")
	_ = cmd.MarkFlagRequired("products")

	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func (fc *fetchCmd) run(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	ctx = logger.WithContext(ctx)

	keyPEM, err := os.ReadFile(fc.keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	issuer := appstore.NewTokenIssuer(logger)
	fetcher := appstore.NewFetcher(fc.baseURL, http.DefaultClient)
	normalizer := currency.NewNormalizer(currency.DefaultProviders(http.DefaultClient), currency.NewRateCache())
	pipeline := finance.NewPipeline(issuer, fetcher, reports.NewExtractor(normalizer), finance.Config{})

	creds := domain.Credentials{
		PrivateKeyPEM: string(keyPEM),
		KeyID:         fc.keyID,
		IssuerID:      fc.issuerID,
	}

	result, err := pipeline.Run(ctx, creds, fc.vendorID, fc.products)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(adapters.MapRunResultDomainToApi(result))
}
