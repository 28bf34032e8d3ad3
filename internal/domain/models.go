// Package domain defines the persistence models for Telegram users, topics,
// FAQs, messages, and the lifetime message counter. These types are mapped
// with GORM and form the core data layer of the civic-assistant bot.
package domain

import (
	"time"
)

// Message roles. Every Message row is authored either by a citizen ("user")
// or by the bot itself ("bot").
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// User represents a Telegram user who has contacted the bot at least once.
// Rows are created on first contact and refreshed (name, last-active) on
// every subsequent one. Users are never deleted.
//
// Fields:
//   - ID: auto-increment primary key.
//   - TelegramID: the platform user id; unique and immutable once created.
//   - Username / FullName: display identity as reported by Telegram.
//   - Phone: optional contact number (filled only if the user shares it).
//   - LanguageCode: language tag reported by the client ("uz" default).
//   - CreatedAt / LastActive: first and most recent contact timestamps.
type User struct {
	ID           uint      `json:"id"            gorm:"primaryKey"`
	TelegramID   int64     `json:"telegram_id"   gorm:"not null;uniqueIndex"`
	Username     string    `json:"username"      gorm:"type:varchar(150)"`
	FullName     string    `json:"full_name"     gorm:"type:varchar(300)"`
	Phone        *string   `json:"phone,omitempty" gorm:"type:varchar(20)"`
	LanguageCode string    `json:"language_code" gorm:"type:varchar(10);not null;default:'uz'"`
	CreatedAt    time.Time `json:"created_at"`
	LastActive   time.Time `json:"last_active"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// Topic is a static FAQ category shown as one of the fixed menu buttons.
// Topics are maintained by operators through the admin API, not by end users.
// An inactive topic is hidden from bot lookups but kept for history.
type Topic struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	Slug      string    `json:"slug"       gorm:"type:varchar(64);not null;uniqueIndex"`
	Title     string    `json:"title"      gorm:"type:varchar(200);not null"`
	Emoji     string    `json:"emoji"      gorm:"type:varchar(10);not null;default:'📋'"`
	Order     int       `json:"order"      gorm:"column:display_order;not null;default:0"`
	IsActive  bool      `json:"is_active"  gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Topic.
func (Topic) TableName() string { return "topics" }

// FAQ is a question/answer pair scoped to exactly one Topic. The first active
// FAQ of a topic (by insertion order) serves as the canonical answer.
// Inactive FAQs are excluded from lookups but not deleted.
type FAQ struct {
	ID        uint      `json:"id"         gorm:"primaryKey"`
	TopicID   uint      `json:"topic"      gorm:"not null;index"`
	Question  string    `json:"question"   gorm:"type:varchar(500);not null"`
	Answer    string    `json:"answer"     gorm:"type:text;not null"`
	IsActive  bool      `json:"is_active"  gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Topic is the owning category. FAQs are cascade-deleted with it.
	Topic Topic `json:"-" gorm:"foreignKey:TopicID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for FAQ.
func (FAQ) TableName() string { return "faqs" }

// Message is one side of an exchange between a user and the bot. Messages are
// append-only from the bot's perspective, but the table itself is capped: once
// the live row count exceeds the retention cap, everything except the newest
// row is deleted. There is deliberately no soft-delete marker here; the trim
// must physically reclaim rows.
//
// TopicID is nullable and becomes NULL (not deleted) when its topic is removed.
type Message struct {
	ID        uint      `json:"id"        gorm:"primaryKey"`
	UserID    uint      `json:"user"      gorm:"not null;index"`
	Role      string    `json:"role"      gorm:"type:varchar(10);not null;check:role IN ('user','bot')"`
	Text      string    `json:"text"      gorm:"type:text;not null"`
	TopicID   *uint     `json:"topic"     gorm:"index"`
	Timestamp time.Time `json:"timestamp" gorm:"index"`

	// User is the author (for role "bot", the recipient). Messages are
	// cascade-deleted with their user.
	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	// Topic is the optional category association; removal of the topic
	// nulls the reference rather than deleting the message.
	Topic *Topic `json:"-" gorm:"foreignKey:TopicID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// StatsCounterID is the primary key of the single StatsCounter row.
const StatsCounterID = 1

// StatsCounter is the persistent lifetime message total. It lives in a
// dedicated single-row table (ID = StatsCounterID) and only ever increases:
// it is incremented exactly once per Message insert, inside the same
// transaction, and is never recomputed from the live row count except as a
// one-time backfill when read at its zero default with rows already present.
type StatsCounter struct {
	ID            uint  `json:"id"             gorm:"primaryKey"`
	TotalMessages int64 `json:"total_messages" gorm:"not null;default:0"`
}

// TableName returns the database table name for StatsCounter.
func (StatsCounter) TableName() string { return "stats_counter" }
