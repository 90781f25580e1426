package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"golang.org/x/sync/errgroup"

	"CycleTrader/internal/model"
)

const fredBaseURL = "https://api.stlouisfed.org/fred"

// FRED series merged into EconomicData.
const (
	SeriesGDPGrowth         = "A191RL1Q225SBEA"
	SeriesUnemployment      = "UNRATE"
	SeriesCPI               = "CPIAUCSL"
	SeriesFedFunds          = "FEDFUNDS"
	SeriesTreasury10Y       = "GS10"
	SeriesTreasury2Y        = "GS2"
	SeriesConsumerSentiment = "UMCSENT"
)

var fredSeries = []string{
	SeriesGDPGrowth, SeriesUnemployment, SeriesCPI, SeriesFedFunds,
	SeriesTreasury10Y, SeriesTreasury2Y, SeriesConsumerSentiment,
}

// FREDFetcher implements MacroFetcher against the St. Louis Fed API.
type FREDFetcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewFREDFetcher(apiKey string, hc *http.Client) *FREDFetcher {
	if hc == nil {
		hc = NewHTTPClient("")
	}
	return &FREDFetcher{APIKey: apiKey, BaseURL: fredBaseURL, Client: hc}
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
}

// FetchEconomicData fetches every series concurrently and merges them by date. Any failed series
// fails the whole call.
func (f *FREDFetcher) FetchEconomicData(ctx context.Context, start time.Time) ([]model.EconomicData, error) {
	results := make([][]fredObservation, len(fredSeries))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range fredSeries {
		g.Go(func() error {
			obs, err := f.fetchSeries(gctx, id, start)
			if err != nil {
				return err
			}
			results[i] = obs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bySeries := make(map[string][]fredObservation, len(fredSeries))
	for i, id := range fredSeries {
		bySeries[id] = results[i]
	}
	data := mergeObservations(bySeries)
	if len(data) == 0 {
		return nil, &FetchError{Source: "fred", Err: ErrNoData}
	}
	return data, nil
}

func (f *FREDFetcher) fetchSeries(ctx context.Context, seriesID string, start time.Time) ([]fredObservation, error) {
	q := url.Values{}
	q.Set("series_id", seriesID)
	q.Set("api_key", f.APIKey)
	q.Set("file_type", "json")
	q.Set("observation_start", start.Format(time.DateOnly))
	u := f.BaseURL + "/series/observations?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: "fred " + seriesID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: "fred " + seriesID, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: "fred " + seriesID, Status: resp.StatusCode, Err: fmt.Errorf("body: %s", truncate(body, 200))}
	}

	var fr fredResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("fred %s decode: %w", seriesID, err)
	}
	return fr.Observations, nil
}

// values parses observations into a date-keyed map, skipping FRED's "." placeholder.
func values(obs []fredObservation) map[string]float64 {
	out := make(map[string]float64, len(obs))
	for _, o := range obs {
		if o.Value == "." {
			continue
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			continue
		}
		out[o.Date] = v
	}
	return out
}

// mergeObservations builds one EconomicData per date seen in any series. Inflation is the CPI
// change against the observation twelve entries earlier; the yield curve is 10Y minus 2Y on dates
// both report.
func mergeObservations(bySeries map[string][]fredObservation) []model.EconomicData {
	byDate := map[string]*model.EconomicData{}
	point := func(date string) *model.EconomicData {
		if d, ok := byDate[date]; ok {
			return d
		}
		t, err := time.Parse(time.DateOnly, date)
		if err != nil {
			return nil
		}
		d := &model.EconomicData{Date: t}
		byDate[date] = d
		return d
	}

	set := func(series string, assign func(*model.EconomicData, float64)) {
		for date, v := range values(bySeries[series]) {
			if d := point(date); d != nil {
				assign(d, v)
			}
		}
	}
	set(SeriesGDPGrowth, func(d *model.EconomicData, v float64) { d.GDPGrowth = optional.Some(v) })
	set(SeriesUnemployment, func(d *model.EconomicData, v float64) { d.Unemployment = optional.Some(v) })
	set(SeriesFedFunds, func(d *model.EconomicData, v float64) { d.FedFunds = optional.Some(v) })
	set(SeriesConsumerSentiment, func(d *model.EconomicData, v float64) { d.ConsumerSentiment = optional.Some(v) })

	t10, t2 := values(bySeries[SeriesTreasury10Y]), values(bySeries[SeriesTreasury2Y])
	for date, long := range t10 {
		if short, ok := t2[date]; ok {
			if d := point(date); d != nil {
				d.YieldCurve = optional.Some(long - short)
			}
		}
	}

	cpi := values(bySeries[SeriesCPI])
	cpiDates := make([]string, 0, len(cpi))
	for date := range cpi {
		cpiDates = append(cpiDates, date)
	}
	sort.Strings(cpiDates)
	for i := 12; i < len(cpiDates); i++ {
		cur, prev := cpi[cpiDates[i]], cpi[cpiDates[i-12]]
		if prev == 0 {
			continue
		}
		if d := point(cpiDates[i]); d != nil {
			d.Inflation = optional.Some((cur - prev) / prev * 100)
		}
	}

	out := make([]model.EconomicData, 0, len(byDate))
	for _, d := range byDate {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
