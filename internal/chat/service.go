package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/suPer8Hu/keyword-chatbot/internal/bot"
	"github.com/suPer8Hu/keyword-chatbot/internal/common"
	"github.com/suPer8Hu/keyword-chatbot/internal/logger"
	"github.com/suPer8Hu/keyword-chatbot/internal/metrics"
)

type Service struct {
	repo       *Repo
	responder  *bot.Responder
	log        *logger.Logger
	replyDelay time.Duration
	events     EventPublisher
	now        func() time.Time
}

func NewService(repo *Repo, responder *bot.Responder, log *logger.Logger, replyDelay time.Duration) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if replyDelay < 0 {
		replyDelay = 0
	}
	return &Service{
		repo:       repo,
		responder:  responder,
		log:        log,
		replyDelay: replyDelay,
		now:        time.Now,
	}
}

// SetEventPublisher enables exchange events. nil disables them.
func (s *Service) SetEventPublisher(p EventPublisher) { s.events = p }

// GetOrCreateSession reuses existingID when it is a usable id and mints a
// fresh one otherwise. Only minted ids get a session row; created reports
// whether that happened. A reused id that has no row keeps working, its
// messages are simply orphans.
func (s *Service) GetOrCreateSession(ctx context.Context, existingID string, userRef *string) (sessionID string, created bool, err error) {
	existingID = strings.TrimSpace(existingID)
	if validSessionID(existingID) {
		return existingID, false, nil
	}

	sid, err := NewSessionID()
	if err != nil {
		return "", false, err
	}
	now := s.now()
	sess := &Session{
		SessionID: sid,
		UserRef:   userRef,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSession(ctx, sess); err != nil {
		return "", false, err
	}
	return sid, true, nil
}

// AppendMessage records one exchange at the end of the session transcript.
func (s *Service) AppendMessage(ctx context.Context, sessionID, userMessage, botResponse, category string, userRef *string) (*Message, error) {
	if sessionID == "" {
		return nil, errors.New("chat: append without session id")
	}
	m := &Message{
		SessionID:   sessionID,
		UserRef:     userRef,
		UserMessage: userMessage,
		BotResponse: botResponse,
		Category:    category,
		CreatedAt:   s.now(),
	}
	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// History returns the transcript oldest first. An unknown session has an
// empty history.
func (s *Service) History(ctx context.Context, sessionID string) ([]HistoryEntry, error) {
	out := []HistoryEntry{}
	if sessionID == "" {
		return out, nil
	}
	msgs, err := s.repo.ListHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, m := range msgs {
		out = append(out, HistoryEntry{
			UserMessage: m.UserMessage,
			BotResponse: m.BotResponse,
			Timestamp:   m.CreatedAt,
		})
	}
	return out, nil
}

// SessionDetail returns the stored session row and its transcript.
// Unlike History it reports a session without a row as not found.
func (s *Service) SessionDetail(ctx context.Context, sessionID string) (*Session, []HistoryEntry, error) {
	sess, err := s.repo.GetSessionBySessionID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	hist, err := s.History(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return sess, hist, nil
}

// Clear hard-deletes the transcript and deactivates the session row, as two
// separate steps. Clearing an empty or unknown session succeeds.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	n, err := s.repo.DeleteMessages(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.repo.DeactivateSession(ctx, sessionID); err != nil {
		return err
	}
	s.log.Debug("chat cleared", "session_id", sessionID, "deleted", n)
	return nil
}

type ReplyInput struct {
	Message   string
	SessionID string
	UserRef   *string
}

type ReplyResult struct {
	Response  string
	SessionID string
	Category  string
	Matched   bool
	// NewSession is set when the session id was minted by this call.
	NewSession bool
	Timestamp  time.Time
}

// Reply answers one chat message: validate, wait out the reply delay,
// resolve the session, match and select a response, persist the exchange.
// A request abandoned during the delay returns the context error and
// leaves nothing behind. Anything failing after that is logged and
// returned as ErrInternal.
func (s *Service) Reply(ctx context.Context, in ReplyInput) (*ReplyResult, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	if err := s.wait(ctx); err != nil {
		metrics.ObserveError("canceled")
		s.log.Warn("chat reply abandoned", "session_id", in.SessionID, "err", err)
		return nil, err
	}

	sid, created, err := s.GetOrCreateSession(ctx, in.SessionID, in.UserRef)
	if err != nil {
		return nil, s.internal("resolve session", err, "session_id", in.SessionID)
	}

	reply, err := s.responder.Respond(msg)
	if err != nil {
		if errors.Is(err, bot.ErrConfiguration) {
			metrics.ObserveError("configuration")
		}
		return nil, s.internal("select response", err, "session_id", sid)
	}

	m, err := s.AppendMessage(ctx, sid, msg, reply.Text, reply.Category, in.UserRef)
	if err != nil {
		return nil, s.internal("append message", err, "session_id", sid)
	}
	metrics.ObserveReply(reply.Category)

	s.publish(ctx, sid, reply, m.CreatedAt)

	return &ReplyResult{
		Response:   reply.Text,
		SessionID:  sid,
		Category:   reply.Category,
		Matched:    reply.Matched,
		NewSession: created,
		Timestamp:  m.CreatedAt,
	}, nil
}

// wait applies the cosmetic reply delay, giving up early if the request
// goes away.
func (s *Service) wait(ctx context.Context) error {
	if s.replyDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.replyDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) publish(ctx context.Context, sid string, reply bot.Reply, at time.Time) {
	if s.events == nil {
		return
	}
	id, err := common.NewULID()
	if err != nil {
		s.log.Warn("exchange event id", "err", err)
		return
	}
	ev := ExchangeEvent{
		EventID:   id,
		SessionID: sid,
		Category:  reply.Category,
		Matched:   reply.Matched,
		CreatedAt: at,
	}
	if err := s.events.PublishExchange(ctx, ev); err != nil {
		metrics.ObserveError("publish")
		s.log.Warn("publish exchange event failed", "session_id", sid, "event_id", id, "err", err)
	}
}

func (s *Service) internal(op string, err error, kv ...interface{}) error {
	metrics.ObserveError("internal")
	fields := append([]interface{}{"op", op, "err", err}, kv...)
	s.log.Error("chat reply failed", fields...)
	return fmt.Errorf("%w: %s", ErrInternal, op)
}

// Rules

// LoadRules installs the stored rule set into the responder. When the store
// is empty and seed is non-empty, seed is written first.
func (s *Service) LoadRules(ctx context.Context, seed []bot.Rule) error {
	if len(seed) > 0 {
		n, err := s.repo.CountRules(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			rows := make([]ResponseRuleRow, 0, len(seed))
			for _, r := range seed {
				row, err := rowFromRule(r)
				if err != nil {
					return err
				}
				rows = append(rows, row)
			}
			if err := s.repo.CreateRules(ctx, rows); err != nil {
				return err
			}
			s.log.Info("seeded response rules", "count", len(rows))
		}
	}
	return s.ReloadRules(ctx)
}

// ReloadRules rebuilds the matcher table from storage. A stored rule that
// fails validation aborts the reload and keeps the current table.
func (s *Service) ReloadRules(ctx context.Context) error {
	rows, err := s.repo.ListRules(ctx)
	if err != nil {
		return err
	}
	rules := make([]bot.Rule, 0, len(rows))
	for _, row := range rows {
		r, err := row.Rule()
		if err != nil {
			return err
		}
		rules = append(rules, r)
	}
	table, err := bot.NewTable(rules)
	if err != nil {
		return err
	}
	s.responder.Swap(table)
	s.log.Info("response rules loaded", "active", table.Len(), "stored", len(rows))
	return nil
}

// ActiveRuleCount is the number of rules the matcher currently uses.
func (s *Service) ActiveRuleCount() int {
	return s.responder.Table().Len()
}

func (s *Service) ListRules(ctx context.Context) ([]ResponseRuleRow, error) {
	return s.repo.ListRules(ctx)
}

func (s *Service) CreateRule(ctx context.Context, in RuleInput) (*ResponseRuleRow, error) {
	row := &ResponseRuleRow{}
	if err := in.apply(row); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRule(ctx, row); err != nil {
		return nil, err
	}
	return row, s.ReloadRules(ctx)
}

// UpdateRule replaces category, keywords and responses of rule id;
// priority and active change only when given.
func (s *Service) UpdateRule(ctx context.Context, id uint64, in RuleInput) (*ResponseRuleRow, error) {
	row, err := s.repo.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := in.apply(row); err != nil {
		return nil, err
	}
	if err := s.repo.SaveRule(ctx, row); err != nil {
		return nil, err
	}
	return row, s.ReloadRules(ctx)
}

func (s *Service) DeleteRule(ctx context.Context, id uint64) error {
	if err := s.repo.DeleteRule(ctx, id); err != nil {
		return err
	}
	return s.ReloadRules(ctx)
}

// Admin listings

func (s *Service) ListSessions(ctx context.Context, limit, offset int) ([]SessionSummary, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListSessions(ctx, limit, offset)
}

func (s *Service) SearchMessages(ctx context.Context, f MessageFilter) ([]Message, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	return s.repo.SearchMessages(ctx, f)
}

func (s *Service) RuleHits(ctx context.Context) ([]RuleHit, error) {
	return s.repo.ListRuleHits(ctx)
}

// IsNotFound reports whether err means the addressed row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
