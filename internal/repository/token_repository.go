package repository

import (
	"sync"
)

// DeviceToken is one registered push-notification target.
type DeviceToken struct {
	Token     string
	Platform  string // "android" or "ios"
	CreatedAt int64
}

// TokenRepository holds the device tokens that receive backtest run alerts.
type TokenRepository struct {
	mu     sync.RWMutex
	tokens map[string]*DeviceToken
}

func NewTokenRepository() *TokenRepository {
	return &TokenRepository{tokens: make(map[string]*DeviceToken)}
}

// RegisterToken adds or refreshes a device token.
func (r *TokenRepository) RegisterToken(token, platform string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tokens[token] = &DeviceToken{Token: token, Platform: platform, CreatedAt: timestamp}
}

// UnregisterToken removes a device token.
func (r *TokenRepository) UnregisterToken(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
}

// GetAllTokens returns every registered token.
func (r *TokenRepository) GetAllTokens() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := make([]string, 0, len(r.tokens))
	for t := range r.tokens {
		tokens = append(tokens, t)
	}
	return tokens
}

// GetTokenCount returns the number of registered tokens.
func (r *TokenRepository) GetTokenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tokens)
}
