package chat

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// AutoMigrate creates or updates every chat table.
func (r *Repo) AutoMigrate() error {
	return r.db.AutoMigrate(Models()...)
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSessionBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// AppendMessage inserts m and bumps the owning session's updated_at in one
// transaction. A missing session row is not an error.
func (r *Repo) AppendMessage(ctx context.Context, m *Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return tx.Model(&Session{}).
			Where("session_id = ?", m.SessionID).
			Update("updated_at", m.CreatedAt).Error
	})
}

// ListHistory returns a session's messages oldest first; id breaks
// timestamp ties.
func (r *Repo) ListHistory(ctx context.Context, sessionID string) ([]Message, error) {
	var msgs []Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *Repo) DeleteMessages(ctx context.Context, sessionID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&Message{})
	return res.RowsAffected, res.Error
}

func (r *Repo) DeactivateSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ?", sessionID).
		Update("active", false).Error
}

// ListSessions returns sessions, most recently updated first, each with
// its message count.
func (r *Repo) ListSessions(ctx context.Context, limit, offset int) ([]SessionSummary, error) {
	var sessions []Session
	if err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return []SessionSummary{}, nil
	}

	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.SessionID)
	}
	var counts []struct {
		SessionID string
		N         int64
	}
	if err := r.db.WithContext(ctx).Model(&Message{}).
		Select("session_id, COUNT(*) AS n").
		Where("session_id IN ?", ids).
		Group("session_id").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]int64, len(counts))
	for _, c := range counts {
		byID[c.SessionID] = c.N
	}

	out := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, SessionSummary{Session: s, MessageCount: byID[s.SessionID]})
	}
	return out, nil
}

type MessageFilter struct {
	SessionID string
	// Query matches user_message, bot_response or session_id.
	Query string
	Limit int
}

// SearchMessages returns messages newest first.
func (r *Repo) SearchMessages(ctx context.Context, f MessageFilter) ([]Message, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(f.Limit)
	if f.SessionID != "" {
		q = q.Where("session_id = ?", f.SessionID)
	}
	if s := strings.TrimSpace(f.Query); s != "" {
		like := "%" + escapeLike(s) + "%"
		q = q.Where("(user_message LIKE ? ESCAPE '!' OR bot_response LIKE ? ESCAPE '!' OR session_id LIKE ? ESCAPE '!')", like, like, like)
	}
	var msgs []Message
	if err := q.Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

// escapeLike neutralizes LIKE wildcards with '!' as the escape character,
// which needs no quoting in either SQLite or MySQL.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "!", "!!")
	s = strings.ReplaceAll(s, "%", "!%")
	s = strings.ReplaceAll(s, "_", "!_")
	return s
}

// Rules

func (r *Repo) ListRules(ctx context.Context) ([]ResponseRuleRow, error) {
	var rows []ResponseRuleRow
	if err := r.db.WithContext(ctx).
		Order("priority ASC").
		Order("category ASC").
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repo) GetRule(ctx context.Context, id uint64) (*ResponseRuleRow, error) {
	var row ResponseRuleRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repo) CreateRules(ctx context.Context, rows []ResponseRuleRow) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *Repo) CreateRule(ctx context.Context, row *ResponseRuleRow) error {
	return r.db.WithContext(ctx).Create(row).Error
}

// SaveRule writes every column of row, including zero values.
func (r *Repo) SaveRule(ctx context.Context, row *ResponseRuleRow) error {
	return r.db.WithContext(ctx).Save(row).Error
}

func (r *Repo) DeleteRule(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&ResponseRuleRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) CountRules(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&ResponseRuleRow{}).Count(&n).Error
	return n, err
}

// Hits

// IncrementRuleHit adds one to category's counter, creating it on first use.
func (r *Repo) IncrementRuleHit(ctx context.Context, category string, at time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "category"}},
		DoUpdates: clause.Assignments(map[string]any{
			"hits":       gorm.Expr("hits + 1"),
			"updated_at": at,
		}),
	}).Create(&RuleHit{Category: category, Hits: 1, UpdatedAt: at}).Error
}

func (r *Repo) ListRuleHits(ctx context.Context) ([]RuleHit, error) {
	var hits []RuleHit
	if err := r.db.WithContext(ctx).
		Order("hits DESC").
		Order("category ASC").
		Find(&hits).Error; err != nil {
		return nil, err
	}
	return hits, nil
}
