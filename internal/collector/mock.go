package collector

import (
	"context"
	"math"
	"time"

	"CycleTrader/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	Bars  []model.PriceBar
	Macro []model.EconomicData
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, _ string, daysBack int) ([]model.PriceBar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	return generateMockBars(m.Price, daysBack*13), nil
}

func (m *MockFetcher) FetchEconomicData(_ context.Context, _ time.Time) ([]model.EconomicData, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Macro, nil
}

// generateMockBars produces count 30-minute bars oscillating around basePrice.
func generateMockBars(basePrice float64, count int) []model.PriceBar {
	start := time.Now().Truncate(30 * time.Minute).Add(-time.Duration(count) * 30 * time.Minute)
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + 0.02*math.Sin(float64(i)/8))
		bars[i] = model.PriceBar{
			Timestamp: start.Add(time.Duration(i) * 30 * time.Minute),
			Open:      p * 0.999,
			High:      p * 1.003,
			Low:       p * 0.997,
			Close:     p,
			Volume:    100000,
		}
	}
	return bars
}
