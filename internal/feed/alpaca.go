package feed

import (
	"log/slog"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

// Compile-time interface check.
var _ PriceFeed = (*AlpacaFeed)(nil)

// AlpacaFeed resolves prices from the latest trade on the Alpaca market-data
// API. Lookups are network calls; callers that need a hot path should wrap
// it with a caching layer or use StaticFeed fed by a stream.
type AlpacaFeed struct {
	client *marketdata.Client
	log    *slog.Logger
}

// NewAlpacaFeed creates an AlpacaFeed with the given credentials. dataURL
// may be empty to use the SDK default endpoint.
func NewAlpacaFeed(apiKey, apiSecret, dataURL string) *AlpacaFeed {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaFeed{
		client: marketdata.NewClient(opts),
		log:    slog.Default().With("feed", "alpaca"),
	}
}

// CurrentPrice returns the price of the latest trade for symbol. Failures
// are logged and reported as "no price known".
func (f *AlpacaFeed) CurrentPrice(symbol string) (float64, bool) {
	trade, err := f.client.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		f.log.Warn("latest trade lookup failed", "symbol", symbol, "error", err)
		return 0, false
	}
	return trade.Price, true
}
