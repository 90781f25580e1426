// Package api serves the live session state over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"CycleTrader/internal/model"
	"CycleTrader/internal/recorder"
)

// Session is the read side of the live session.
type Session interface {
	Symbol() string
	LatestSignal() (model.Signal, bool)
	Position() *model.Position
	Capital() float64
	LastPrice() float64
	CycleStage() optional.Option[model.CycleStage]
}

const (
	defaultLimit = 50
	maxLimit     = 1000
)

// NewRouter registers the status routes. metrics may be nil.
func NewRouter(session Session, rec recorder.Recorder, metrics http.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "symbol": session.Symbol()})
	})

	r.GET("/signals/latest", func(c *gin.Context) {
		sig, ok := session.LatestSignal()
		if !ok {
			c.JSON(http.StatusOK, gin.H{"signal": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"signal": sig})
	})

	r.GET("/position", func(c *gin.Context) {
		resp := gin.H{
			"symbol":     session.Symbol(),
			"capital":    session.Capital(),
			"last_price": session.LastPrice(),
			"position":   nil,
		}
		if p := session.Position(); p != nil {
			resp["position"] = p
			resp["unrealised_pl"] = p.ProfitLossAt(session.LastPrice())
		}
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/trades", func(c *gin.Context) {
		trades, err := rec.Trades(limit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"trades": orEmpty(trades)})
	})

	r.GET("/cycle", func(c *gin.Context) {
		resp := gin.H{"stage": nil}
		if stage := session.CycleStage(); stage.IsSome() {
			resp["stage"] = stage.Unwrap()
			resp["description"] = stage.Unwrap().Description()
		}
		history, err := rec.StageHistory(limit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		transitions, err := rec.Transitions(limit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["history"] = orEmpty(history)
		resp["transitions"] = orEmpty(transitions)
		c.JSON(http.StatusOK, resp)
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
	return r
}

func limit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return min(n, maxLimit)
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
