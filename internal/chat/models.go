package chat

import (
	"time"

	"gorm.io/datatypes"
)

// Session is a logical conversation. Messages reference it by SessionID
// only; there is no foreign key, so either side may exist without the
// other (a cleared session keeps its row, a client-supplied id may have
// messages but no row).
type Session struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	SessionID string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"session_id"`
	UserRef   *string   `gorm:"type:varchar(64);index" json:"user_ref,omitempty"`
	Active    bool      `gorm:"not null" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "chat_sessions" }

// Message is one exchange: the user's text and the bot's answer.
// Rows are never updated; Clear deletes them.
type Message struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID   string    `gorm:"type:varchar(100);not null;index:idx_chat_msg_session_created,priority:1" json:"session_id"`
	UserRef     *string   `gorm:"type:varchar(64);index" json:"user_ref,omitempty"`
	UserMessage string    `gorm:"type:text;not null" json:"user_message"`
	BotResponse string    `gorm:"type:text;not null" json:"bot_response"`
	Category    string    `gorm:"type:varchar(32);index" json:"category"`
	CreatedAt   time.Time `gorm:"index:idx_chat_msg_session_created,priority:2" json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// ResponseRuleRow is the stored form of a bot.Rule. Keywords stay a comma
// separated list, Responses a JSON array of strings.
type ResponseRuleRow struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Category  string         `gorm:"type:varchar(32);index;not null" json:"category"`
	Keywords  string         `gorm:"type:text;not null" json:"keywords"`
	Responses datatypes.JSON `gorm:"not null" json:"responses"`
	Priority  int            `gorm:"not null;index" json:"priority"`
	Active    bool           `gorm:"not null" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (ResponseRuleRow) TableName() string { return "chat_response_rules" }

// RuleHit counts replies per category; written by the event worker.
type RuleHit struct {
	Category  string    `gorm:"primaryKey;type:varchar(32)" json:"category"`
	Hits      int64     `gorm:"not null" json:"hits"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RuleHit) TableName() string { return "chat_rule_hits" }

// SessionSummary is a session plus its current message count. The count
// is taken from chat_messages independently of the session row.
type SessionSummary struct {
	Session
	MessageCount int64 `json:"message_count"`
}

// HistoryEntry is the public view of a Message.
type HistoryEntry struct {
	UserMessage string    `json:"user_message"`
	BotResponse string    `json:"bot_response"`
	Timestamp   time.Time `json:"timestamp"`
}

// Models lists every table owned by this package, for AutoMigrate.
func Models() []any {
	return []any{&Session{}, &Message{}, &ResponseRuleRow{}, &RuleHit{}}
}
