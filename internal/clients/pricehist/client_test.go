package pricehist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketrank/sctr-server/internal/cache"
)

func chartBody(t *testing.T, n int, nullEvery int) string {
	t.Helper()

	type quote struct {
		Close []*float64 `json:"close"`
	}
	var (
		timestamps []*int64
		closes     []*float64
	)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ts := base.AddDate(0, 0, i).Unix()
		timestamps = append(timestamps, &ts)
		if nullEvery > 0 && i%nullEvery == 0 {
			closes = append(closes, nil)
		} else {
			v := 100 + float64(i)
			closes = append(closes, &v)
		}
	}

	body := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []map[string]interface{}{
				{
					"timestamp": timestamps,
					"indicators": map[string]interface{}{
						"quote": []quote{{Close: closes}},
					},
				},
			},
			"error": nil,
		},
	}

	data, err := json.Marshal(body)
	require.NoError(t, err)
	return string(data)
}

func newPriceClient(t *testing.T, handler http.HandlerFunc) (*Client, *cache.Cache[[]ClosePoint]) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	pc := cache.New[[]ClosePoint]("price_history", cache.Options{Dir: t.TempDir(), TTL: time.Hour}, zerolog.Nop())
	client := NewClient(resty.New(), pc, srv.URL+"/chart/%s", "3mo", zerolog.Nop())
	return client, pc
}

func TestDailyCloses(t *testing.T) {
	var body string
	client, _ := newPriceClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})
	body = chartBody(t, 60, 0)

	points, err := client.DailyCloses(context.Background(), "SMH")
	require.NoError(t, err)
	assert.Len(t, points, 60)
	assert.Equal(t, "2024-01-01", points[0].Date)
	assert.InDelta(t, 100.0, points[0].Close, 1e-9)
}

func TestDailyClosesDropsNulls(t *testing.T) {
	client, _ := newPriceClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(t, 120, 2))
	})

	points, err := client.DailyCloses(context.Background(), "SMH")
	require.NoError(t, err)
	assert.Len(t, points, 60, "null closes are dropped")
}

func TestDailyClosesRejectsShortHistory(t *testing.T) {
	client, _ := newPriceClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartBody(t, 30, 0))
	})

	_, err := client.DailyCloses(context.Background(), "IPO")
	assert.Error(t, err)
}

func TestDailyClosesCachesResult(t *testing.T) {
	var hits atomic.Int32
	client, _ := newPriceClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, chartBody(t, 60, 0))
	})

	_, err := client.DailyCloses(context.Background(), "SMH")
	require.NoError(t, err)
	_, err = client.DailyCloses(context.Background(), "SMH")
	require.NoError(t, err)

	assert.Equal(t, int32(1), hits.Load(), "second call must be served from cache")
}

func TestDailyClosesExpiredContextIsNotNegativelyCached(t *testing.T) {
	var hits atomic.Int32
	client, _ := newPriceClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			time.Sleep(50 * time.Millisecond)
		}
		fmt.Fprint(w, chartBody(t, 60, 0))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	_, err := client.DailyCloses(ctx, "SMH")
	require.Error(t, err)

	points, err := client.DailyCloses(context.Background(), "SMH")
	require.NoError(t, err, "a timed-out caller must not poison the symbol for later callers")
	assert.Len(t, points, 60)
	assert.Equal(t, int32(2), hits.Load(), "fresh context refetches instead of hitting a cached negative")
}

func TestDailyClosesCachesNegativeResult(t *testing.T) {
	var hits atomic.Int32
	client, _ := newPriceClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.DailyCloses(context.Background(), "SMH")
	require.Error(t, err)
	_, err = client.DailyCloses(context.Background(), "SMH")
	require.Error(t, err)

	assert.Equal(t, int32(1), hits.Load(), "failed lookup must not be retried while cached")
}
