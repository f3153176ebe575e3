package fred

import (
    "context"
    "net/http"
    "net/http/httptest"
    "sync/atomic"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    icache "MacroPull/internal/service/cache"
    "MacroPull/internal/service/provider"
    "MacroPull/pkg/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...provider.Option) *Client {
    t.Helper()
    srv := httptest.NewServer(h)
    t.Cleanup(srv.Close)
    return New(config.FredConfig{
        APIKey:           "secret",
        BaseURL:          srv.URL,
        ObservationStart: "2020-01-01",
        Timeout:          time.Second,
    }, opts...)
}

func TestFetchIndicator(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, observationsPath, r.URL.Path)
        assert.Equal(t, "GDPC1", r.URL.Query().Get("series_id"))
        assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
        assert.Equal(t, "json", r.URL.Query().Get("file_type"))
        assert.Equal(t, "2020-01-01", r.URL.Query().Get("observation_start"))
        w.Header().Set("Content-Type", "application/json")
        _, _ = w.Write([]byte(`{"count":3,"observations":[
            {"realtime_start":"2024-01-01","date":"2020-01-01","value":"19000.1"},
            {"realtime_start":"2024-01-01","date":"2020-04-01","value":"."},
            {"realtime_start":"2024-01-01","date":"2020-07-01","value":"18500"}]}`))
    })

    tbl, err := c.FetchIndicator(context.Background(), "GDPC1")
    require.NoError(t, err)
    assert.Equal(t, "fred:GDPC1", tbl.Source)
    assert.Equal(t, []string{"date", "GDPC1"}, tbl.Columns)
    require.Len(t, tbl.Rows, 3)
    assert.Equal(t, []any{"2020-04-01", MissingMarker}, tbl.Rows[1])
}

func TestFetchIndicatorAPIError(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusBadRequest)
        _, _ = w.Write([]byte(`{"error_code":400,"error_message":"Bad Request. The series does not exist."}`))
    })
    _, err := c.FetchIndicator(context.Background(), "NOPE")
    require.Error(t, err)
    assert.Contains(t, err.Error(), "400")
}

func TestFetchIndicatorRejectsEmptyID(t *testing.T) {
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        t.Fatal("no request expected")
    })
    _, err := c.FetchIndicator(context.Background(), " ")
    assert.Error(t, err)
}

func TestFetchIndicatorUsesCache(t *testing.T) {
    var hits int32
    c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
        atomic.AddInt32(&hits, 1)
        _, _ = w.Write([]byte(`{"observations":[{"date":"2020-01-01","value":"1"}]}`))
    }, provider.WithCache(icache.NewTTLCache(), time.Minute))

    for i := 0; i < 3; i++ {
        tbl, err := c.FetchIndicator(context.Background(), "GDPC1")
        require.NoError(t, err)
        require.Len(t, tbl.Rows, 1)
    }
    assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
