package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"CycleTrader/internal/model"
)

// Polygon aggregate settings for the intraday series.
const (
	PolygonMultiplier = 30
	polygonPageLimit  = 50000
)

// PolygonFetcher loads 30-minute aggregates from Polygon.io. Delayed free-tier data is accepted.
type PolygonFetcher struct {
	listAggs func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error)
	now      func() time.Time
}

// NewPolygonFetcher creates a fetcher for apiKey. hc may be nil.
func NewPolygonFetcher(apiKey string, hc *http.Client) *PolygonFetcher {
	var client *polygon.Client
	if hc != nil {
		client = polygon.NewWithClient(apiKey, hc)
	} else {
		client = polygon.New(apiKey)
	}
	return &PolygonFetcher{
		listAggs: func(ctx context.Context, params *models.ListAggsParams) ([]models.Agg, error) {
			iter := client.ListAggs(ctx, params)
			var aggs []models.Agg
			for iter.Next() {
				aggs = append(aggs, iter.Item())
			}
			return aggs, iter.Err()
		},
		now: time.Now,
	}
}

func (f *PolygonFetcher) Name() string { return "polygon" }

// FetchBars returns the 30-minute bars of the last daysBack calendar days in ascending order.
func (f *PolygonFetcher) FetchBars(ctx context.Context, symbol string, daysBack int) ([]model.PriceBar, error) {
	end := f.now()
	start := end.AddDate(0, 0, -daysBack)

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: PolygonMultiplier,
		Timespan:   models.Minute,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithAdjusted(true).WithOrder(models.Asc).WithLimit(polygonPageLimit)

	aggs, err := f.listAggs(ctx, params)
	if err != nil {
		return nil, polygonError(err)
	}
	if len(aggs) == 0 {
		return nil, &FetchError{Source: "polygon", Err: fmt.Errorf("%s: %w", symbol, ErrNoData)}
	}

	bars := make([]model.PriceBar, 0, len(aggs))
	for _, a := range aggs {
		bars = append(bars, model.PriceBar{
			Timestamp: time.Time(a.Timestamp),
			Open:      a.Open,
			High:      a.High,
			Low:       a.Low,
			Close:     a.Close,
			Volume:    int64(a.Volume),
		})
	}
	return model.SortBars(bars), nil
}

func polygonError(err error) error {
	var apiErr *models.ErrorResponse
	if errors.As(err, &apiErr) {
		return &FetchError{Source: "polygon", Status: apiErr.StatusCode, Err: err}
	}
	return &FetchError{Source: "polygon", Err: err}
}
