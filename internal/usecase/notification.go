package usecase

import (
	"fmt"
	"log"
	"sync"
	"time"

	"backtest-backend/internal/domain"
	"backtest-backend/internal/infrastructure/fcm"
	"backtest-backend/internal/repository"
)

// NotificationService pushes run-completion alerts to registered devices.
// A per-symbol cooldown keeps repeated parameter tweaks from spamming phones.
type NotificationService struct {
	fcmClient *fcm.Client
	tokenRepo *repository.TokenRepository
	notified  map[string]time.Time
	mu        sync.Mutex
}

func NewNotificationService(fcmClient *fcm.Client, tokenRepo *repository.TokenRepository) *NotificationService {
	return &NotificationService{
		fcmClient: fcmClient,
		tokenRepo: tokenRepo,
		notified:  make(map[string]time.Time),
	}
}

const notifyCooldown = 5 * time.Minute

// NotifyRunFinished announces a completed backtest with its headline numbers.
func (s *NotificationService) NotifyRunFinished(p domain.BacktestParams, stats domain.Statistics) {
	title := fmt.Sprintf("✅ %s backtest complete", p.Symbol)
	body := fmt.Sprintf("PnL %+.2f%% | %d trades | Win %.0f%%",
		stats.TotalPnlPercent, stats.TotalTrades, stats.WinRate)
	s.send(p.Symbol, title, body, map[string]string{
		"symbol":    p.Symbol,
		"timeframe": p.Timeframe,
		"period":    p.Period,
		"pnl":       fmt.Sprintf("%.2f", stats.TotalPnlPercent),
	})
}

// NotifyRunFailed announces that the strategy service could not produce a result.
func (s *NotificationService) NotifyRunFailed(p domain.BacktestParams) {
	title := fmt.Sprintf("⚠️ %s backtest failed", p.Symbol)
	body := fmt.Sprintf("Strategy run for %s %s did not complete; showing a neutral report.",
		p.Symbol, p.Timeframe)
	s.send(p.Symbol, title, body, map[string]string{
		"symbol":    p.Symbol,
		"timeframe": p.Timeframe,
		"period":    p.Period,
	})
}

func (s *NotificationService) send(symbol, title, body string, data map[string]string) {
	if s.fcmClient == nil || !s.fcmClient.IsEnabled() {
		return
	}
	tokens := s.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		return
	}

	now := time.Now()
	s.mu.Lock()
	last, seen := s.notified[symbol]
	if seen && now.Sub(last) < notifyCooldown {
		s.mu.Unlock()
		return
	}
	s.notified[symbol] = now
	for sym, ts := range s.notified {
		if now.Sub(ts) > notifyCooldown*2 {
			delete(s.notified, sym)
		}
	}
	s.mu.Unlock()

	if err := s.fcmClient.SendMulticast(tokens, title, body, data); err != nil {
		log.Printf("notify: %s: %v", symbol, err)
		return
	}
	log.Printf("notify: sent %q to %d devices", title, len(tokens))
}
