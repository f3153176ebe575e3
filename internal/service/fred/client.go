package fred

import (
    "context"
    "errors"
    "fmt"
    "net/url"
    "strings"

    "MacroPull/internal/domain/models"
    domsvc "MacroPull/internal/domain/service"
    "MacroPull/internal/service/provider"
    "MacroPull/pkg/config"
)

const observationsPath = "/fred/series/observations"

// MissingMarker is how FRED writes an absent observation.
const MissingMarker = "."

var ErrAPI = errors.New("fred api error")

// Client fetches series observations from the FRED API.
type Client struct {
    base   *provider.Base
    apiKey string
    start  string
    end    string
}

// New builds a FRED client from its config section.
func New(cfg config.FredConfig, opts ...provider.Option) *Client {
    return &Client{
        base:   provider.NewBase("fred", cfg.BaseURL, cfg.Timeout, opts...),
        apiKey: cfg.APIKey,
        start:  cfg.ObservationStart,
        end:    cfg.ObservationEnd,
    }
}

type observation struct {
    Date  string `json:"date"`
    Value string `json:"value"`
}

type observationsResp struct {
    Count        int           `json:"count"`
    Observations []observation `json:"observations"`
    ErrorCode    int           `json:"error_code"`
    ErrorMessage string        `json:"error_message"`
}

// FetchIndicator returns the series as a raw table with columns date and the
// series id. Values are left as FRED sends them, "." included.
func (c *Client) FetchIndicator(ctx context.Context, seriesID string) (models.RawTable, error) {
    seriesID = strings.TrimSpace(seriesID)
    if seriesID == "" {
        return models.RawTable{}, fmt.Errorf("fred: series id is required")
    }
    q := url.Values{}
    q.Set("series_id", seriesID)
    q.Set("api_key", c.apiKey)
    q.Set("file_type", "json")
    if c.start != "" {
        q.Set("observation_start", c.start)
    }
    if c.end != "" {
        q.Set("observation_end", c.end)
    }

    var resp observationsResp
    err := c.base.GetJSON(ctx, observationsPath, q, &resp, func() error {
        if resp.ErrorMessage != "" {
            return fmt.Errorf("%w %d: %s", ErrAPI, resp.ErrorCode, resp.ErrorMessage)
        }
        return nil
    })
    if err != nil {
        return models.RawTable{}, err
    }

    t := models.RawTable{
        Source:  "fred:" + seriesID,
        Columns: []string{models.ColDate, seriesID},
        Rows:    make([][]any, 0, len(resp.Observations)),
    }
    for _, o := range resp.Observations {
        t.Rows = append(t.Rows, []any{o.Date, o.Value})
    }
    return t, nil
}

var _ domsvc.IndicatorSource = (*Client)(nil)
