package collector

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"CycleTrader/internal/model"
)

// ErrNoData is returned when a provider answers successfully with no usable observations.
var ErrNoData = errors.New("no data returned")

// BarFetcher loads intraday price bars, oldest first.
type BarFetcher interface {
	FetchBars(ctx context.Context, symbol string, daysBack int) ([]model.PriceBar, error)
	Name() string
}

// MacroFetcher loads merged macro observations from start on, oldest first.
type MacroFetcher interface {
	FetchEconomicData(ctx context.Context, start time.Time) ([]model.EconomicData, error)
}

// FetchError describes a failed call to a data provider.
type FetchError struct {
	Source string
	// Status is the HTTP status, or 0 when the request never got a response.
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether the same call may succeed later: network failures, rate limiting
// and server errors.
func (e *FetchError) Retryable() bool {
	if e.Status == http.StatusTooManyRequests || e.Status >= 500 {
		return true
	}
	var netErr net.Error
	return e.Status == 0 && errors.As(e.Err, &netErr)
}

// IsRetryable reports whether err wraps a retryable FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}

// NewHTTPClient builds the client shared by the HTTP fetchers, routed through proxyURL when set.
func NewHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}
