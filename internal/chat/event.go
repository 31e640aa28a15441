package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExchangeEvent is emitted after an exchange is persisted.
type ExchangeEvent struct {
	EventID   string    `json:"event_id"`
	SessionID string    `json:"session_id"`
	Category  string    `json:"category"`
	Matched   bool      `json:"matched"`
	CreatedAt time.Time `json:"created_at"`
}

// EventPublisher delivers exchange events, typically to a broker.
type EventPublisher interface {
	PublishExchange(ctx context.Context, ev ExchangeEvent) error
}

var ErrBadEvent = errors.New("chat: bad exchange event")

// DecodeExchangeEvent parses a broker payload. Events without a category
// are rejected.
func DecodeExchangeEvent(body []byte) (ExchangeEvent, error) {
	var ev ExchangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ExchangeEvent{}, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	ev.Category = strings.TrimSpace(ev.Category)
	if ev.Category == "" {
		return ExchangeEvent{}, fmt.Errorf("%w: missing category", ErrBadEvent)
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	return ev, nil
}

// RecordExchange counts ev against its category.
func (s *Service) RecordExchange(ctx context.Context, ev ExchangeEvent) error {
	return s.repo.IncrementRuleHit(ctx, ev.Category, ev.CreatedAt)
}
