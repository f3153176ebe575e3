package alphavantage

import (
    "context"
    "errors"
    "fmt"
    "net/url"
    "sort"
    "strings"

    "MacroPull/internal/domain/models"
    domsvc "MacroPull/internal/domain/service"
    "MacroPull/internal/service/provider"
    "MacroPull/pkg/config"
)

const (
    queryPath   = "/query"
    dailySeries = "Time Series (Daily)"
)

var (
    ErrAPI         = errors.New("alpha vantage api error")
    ErrRateLimited = errors.New("alpha vantage rate limited")
)

// Columns are the raw table columns, renamed from the "1. open" style keys.
var Columns = []string{models.ColDate, "Open", "High", "Low", "Close", "Volume"}

var fieldKeys = map[string]string{
    "Open":   "1. open",
    "High":   "2. high",
    "Low":    "3. low",
    "Close":  "4. close",
    "Volume": "5. volume",
}

// Client fetches daily prices from Alpha Vantage.
type Client struct {
    base       *provider.Base
    apiKey     string
    outputSize string
}

// New builds an Alpha Vantage client from its config section.
func New(cfg config.StockConfig, opts ...provider.Option) *Client {
    size := cfg.OutputSize
    if size == "" {
        size = "full"
    }
    return &Client{
        base:       provider.NewBase("alphavantage", cfg.BaseURL, cfg.Timeout, opts...),
        apiKey:     cfg.APIKey,
        outputSize: size,
    }
}

type dailyResp struct {
    Meta         map[string]string            `json:"Meta Data"`
    Series       map[string]map[string]string `json:"Time Series (Daily)"`
    Note         string                       `json:"Note"`
    Information  string                       `json:"Information"`
    ErrorMessage string                       `json:"Error Message"`
}

func (r *dailyResp) check() error {
    switch {
    case r.ErrorMessage != "":
        return fmt.Errorf("%w: %s", ErrAPI, r.ErrorMessage)
    case r.Note != "":
        return fmt.Errorf("%w: %s", ErrRateLimited, r.Note)
    case r.Series == nil && r.Information != "":
        return fmt.Errorf("%w: %s", ErrRateLimited, r.Information)
    case r.Series == nil:
        return fmt.Errorf("%w: response has no %q object", ErrAPI, dailySeries)
    }
    return nil
}

// FetchDailyPrices returns the daily OHLCV series of symbol as a raw table,
// oldest first.
func (c *Client) FetchDailyPrices(ctx context.Context, symbol string) (models.RawTable, error) {
    symbol = strings.ToUpper(strings.TrimSpace(symbol))
    if symbol == "" {
        return models.RawTable{}, fmt.Errorf("alphavantage: symbol is required")
    }
    q := url.Values{}
    q.Set("function", "TIME_SERIES_DAILY")
    q.Set("symbol", symbol)
    q.Set("outputsize", c.outputSize)
    q.Set("apikey", c.apiKey)

    var resp dailyResp
    if err := c.base.GetJSON(ctx, queryPath, q, &resp, resp.check); err != nil {
        return models.RawTable{}, err
    }

    dates := make([]string, 0, len(resp.Series))
    for d := range resp.Series {
        dates = append(dates, d)
    }
    sort.Strings(dates)

    t := models.RawTable{
        Source:  "alphavantage:" + symbol,
        Columns: append([]string(nil), Columns...),
        Rows:    make([][]any, 0, len(dates)),
    }
    for _, d := range dates {
        bar := resp.Series[d]
        row := make([]any, len(Columns))
        row[0] = d
        for i, col := range Columns[1:] {
            if v, ok := bar[fieldKeys[col]]; ok {
                row[i+1] = v
            }
        }
        t.Rows = append(t.Rows, row)
    }
    return t, nil
}

var _ domsvc.PriceSource = (*Client)(nil)
