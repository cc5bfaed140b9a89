package marketdata

import (
	"fmt"

	"paperTrader/config"
	"paperTrader/internal/adapters/binanceclient"
	"paperTrader/internal/adapters/hyperliquid"
	"paperTrader/internal/ports"
)

// Supported providers.
const (
	ProviderHyperliquid = "hyperliquid"
	ProviderBinance     = "binance"
)

// New builds the market data client selected by cfg.Provider.
func New(cfg config.MarketDataConfig, logger ports.Logger) (ports.MarketDataClient, error) {
	switch cfg.Provider {
	case ProviderBinance:
		c, err := binanceclient.New(binanceclient.Config{
			APIKey:     cfg.Binance.APIKey,
			SecretKey:  cfg.Binance.SecretKey,
			UseTestnet: cfg.Binance.UseTestnet,
			QuoteAsset: cfg.Binance.QuoteAsset,
			DepthLimit: cfg.Binance.DepthLimit,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderHyperliquid, "":
		c, err := hyperliquid.New(hyperliquid.Config{
			BaseURL: cfg.HyperliquidURL,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown market data provider %q: %w", cfg.Provider, ports.ErrConfigurationError)
	}
}
