package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	httpdelivery "backtest-backend/internal/delivery/http"
	wsdelivery "backtest-backend/internal/delivery/websocket"
	"backtest-backend/internal/domain"
	"backtest-backend/internal/infrastructure/chart"
	"backtest-backend/internal/infrastructure/db"
	"backtest-backend/internal/infrastructure/fcm"
	"backtest-backend/internal/infrastructure/marketdata"
	"backtest-backend/internal/infrastructure/strategy"
	"backtest-backend/internal/repository"
	"backtest-backend/internal/usecase"
)

func main() {
	ctx := context.Background()

	// Candle cache is optional: without DATABASE_URL every reload refetches.
	var cache domain.CandleCache
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := db.NewPool(ctx, dbURL, db.PoolConfigFromEnv())
		if err != nil {
			log.Fatalf("db pool: %v", err)
		}
		defer pool.Close()
		if err := db.Migrate(ctx, pool); err != nil {
			log.Fatalf("db migrate: %v", err)
		}
		cache = repository.NewPostgresCandleRepository(pool)
		log.Println("Candle cache enabled")
	} else {
		log.Println("DATABASE_URL not set; candle cache disabled")
	}

	windows := usecase.DefaultWindows
	if v := os.Getenv("CANDLE_WINDOWS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			windows = n
		}
	}

	source := marketdata.NewClient(os.Getenv("MARKET_DATA_URL"))
	candleService := usecase.NewCandleService(source, cache, windows)
	strategyClient := strategy.NewClient(os.Getenv("STRATEGY_API_URL"))
	states := repository.NewInMemoryRenderStateRepository()

	tokenRepo := repository.NewTokenRepository()
	fcmClient, err := fcm.NewClient()
	if err != nil {
		log.Printf("fcm init: %v (notifications disabled)", err)
		fcmClient = nil
	}
	var notifier *usecase.NotificationService
	if fcmClient != nil {
		notifier = usecase.NewNotificationService(fcmClient, tokenRepo)
	}

	orchestrator := usecase.NewBacktestOrchestrator(candleService, strategyClient, states, notifier)

	controller := chart.NewController(func() (chart.Surface, error) {
		return chart.NewSVGSurface(1200, 480), nil
	})
	if err := controller.Init(); err != nil {
		log.Printf("chart surface: %v", err)
	}
	defer controller.Teardown()
	go bindChart(states, controller)

	backtestHandler := httpdelivery.NewBacktestHandler(orchestrator, states)
	candleHandler := httpdelivery.NewCandleHandler(candleService)
	chartHandler := httpdelivery.NewChartHandler(controller, states)
	tokenHandler := httpdelivery.NewTokenHandler(tokenRepo)
	wsHandler := wsdelivery.NewHandler(states)

	http.HandleFunc("/api/backtest", backtestHandler.HandleRun)
	http.HandleFunc("/api/backtest/state", backtestHandler.HandleState)
	http.HandleFunc("/api/backtest/trades", backtestHandler.HandleTrades)
	http.HandleFunc("/api/backtest/price.svg", chartHandler.HandlePriceSVG)
	http.HandleFunc("/api/backtest/equity.svg", chartHandler.HandleEquitySVG)
	http.HandleFunc("/api/candles", candleHandler.HandleCandles)
	http.HandleFunc("/api/tokens/register", tokenHandler.HandleRegisterToken)
	http.HandleFunc("/api/tokens/unregister", tokenHandler.HandleUnregisterToken)
	http.HandleFunc("/api/tokens/count", tokenHandler.HandleGetTokenCount)
	http.HandleFunc("/ws", wsHandler.Handle)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Server executing on :%s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

// bindChart feeds newly accepted render states into the chart surface. The
// controller buffers and retries internally, so ordering against surface
// creation does not matter here.
func bindChart(states domain.RenderStateRepository, controller *chart.Controller) {
	var lastSeq uint64
	var lastPhase string
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		state, ok := states.Latest()
		if !ok || (state.Sequence == lastSeq && state.Phase == lastPhase) {
			continue
		}
		controller.Bind(state.Candles, state.Markers)
		lastSeq, lastPhase = state.Sequence, state.Phase
	}
}
