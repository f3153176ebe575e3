package provider

import (
    "context"
    "encoding/json"
    "fmt"
    "net/url"
    "strings"
    "time"

    icache "MacroPull/internal/service/cache"
    pmetrics "MacroPull/internal/service/metrics"
    xhttp "MacroPull/pkg/http"
    applogger "MacroPull/pkg/logger"
)

// Waiter blocks until a call for key may proceed.
type Waiter interface {
    Wait(ctx context.Context, key string) error
}

// Base is the shared HTTP plumbing of the data provider clients: JSON GETs
// with an optional payload cache, an optional outbound rate limit, and
// latency/error metrics per provider.
type Base struct {
    name    string
    baseURL string
    client  *xhttp.Client
    cache   icache.BytesCache
    ttl     time.Duration
    limiter Waiter
    l       *applogger.Logger
}

// Option configures Base.
type Option func(*Base)

// WithCache stores successful payloads for ttl.
func WithCache(c icache.BytesCache, ttl time.Duration) Option {
    return func(b *Base) {
        b.cache = c
        b.ttl = ttl
    }
}

// WithLimiter throttles outbound calls.
func WithLimiter(w Waiter) Option {
    return func(b *Base) { b.limiter = w }
}

// WithLogger sets the logger.
func WithLogger(l *applogger.Logger) Option {
    return func(b *Base) { b.l = l }
}

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *xhttp.Client) Option {
    return func(b *Base) { b.client = c }
}

// NewBase builds a provider base for baseURL.
func NewBase(name, baseURL string, timeout time.Duration, opts ...Option) *Base {
    if timeout <= 0 {
        timeout = 15 * time.Second
    }
    b := &Base{
        name:    name,
        baseURL: strings.TrimRight(baseURL, "/"),
        client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
    }
    for _, o := range opts {
        o(b)
    }
    pmetrics.Register()
    return b
}

// Name is the provider label used in metrics and cache keys.
func (b *Base) Name() string { return b.name }

// CacheKey identifies a request without its credentials.
func (b *Base) CacheKey(path string, query url.Values) string {
    q := url.Values{}
    for k, v := range query {
        switch strings.ToLower(k) {
        case "api_key", "apikey":
            continue
        }
        q[k] = v
    }
    return b.name + ":" + path + "?" + q.Encode()
}

// GetJSON fetches path and decodes the body into dest. check inspects the
// decoded payload; a payload that fails check is returned as an error and
// never cached.
func (b *Base) GetJSON(ctx context.Context, path string, query url.Values, dest any, check func() error) error {
    key := b.CacheKey(path, query)
    if b.cache != nil {
        raw, ok, err := b.cache.GetBytes(ctx, key)
        if err != nil && b.l != nil {
            b.l.Warn("provider cache read failed", applogger.String("provider", b.name), applogger.Error(err))
        }
        if ok {
            if err := json.Unmarshal(raw, dest); err == nil && (check == nil || check() == nil) {
                pmetrics.ProviderCacheHits.WithLabelValues(b.name).Inc()
                return nil
            }
        }
    }

    if b.limiter != nil {
        if err := b.limiter.Wait(ctx, b.name); err != nil {
            return fmt.Errorf("%s: rate limit wait: %w", b.name, err)
        }
    }

    start := time.Now()
    var raw []byte
    err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
        Method:      xhttp.MethodGet,
        URL:         b.baseURL + path,
        Headers:     map[string]string{"Accept": "application/json"},
        QueryParams: query,
    }, &raw)
    pmetrics.ProviderLatency.WithLabelValues(b.name).Observe(time.Since(start).Seconds())
    if err != nil {
        pmetrics.ProviderErrors.WithLabelValues(b.name).Inc()
        return fmt.Errorf("%s get %s: %w", b.name, path, err)
    }
    if err := json.Unmarshal(raw, dest); err != nil {
        pmetrics.ProviderErrors.WithLabelValues(b.name).Inc()
        return fmt.Errorf("%s decode %s: %w", b.name, path, err)
    }
    if check != nil {
        if err := check(); err != nil {
            pmetrics.ProviderErrors.WithLabelValues(b.name).Inc()
            return fmt.Errorf("%s: %w", b.name, err)
        }
    }

    if b.cache != nil {
        if err := b.cache.SetBytes(ctx, key, raw, b.ttl); err != nil && b.l != nil {
            b.l.Warn("provider cache write failed", applogger.String("provider", b.name), applogger.Error(err))
        }
    }
    if b.l != nil {
        b.l.Debug("provider fetched",
            applogger.String("provider", b.name),
            applogger.String("path", path),
            applogger.Int("bytes", len(raw)),
            applogger.Duration("duration_ms", time.Since(start)),
        )
    }
    return nil
}
