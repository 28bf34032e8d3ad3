package bot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dustlik/civicbot/internal/ai"
	"github.com/dustlik/civicbot/internal/catalog"
	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
)

// apiRecorder captures outgoing Telegram calls.
type apiRecorder struct {
	sent     []*tgbot.SendMessageParams
	answered []*tgbot.AnswerCallbackQueryParams
	deleted  []*tgbot.DeleteMessageParams
}

func (r *apiRecorder) SendMessage(_ context.Context, p *tgbot.SendMessageParams) (*models.Message, error) {
	r.sent = append(r.sent, p)
	return &models.Message{ID: len(r.sent)}, nil
}

func (r *apiRecorder) AnswerCallbackQuery(_ context.Context, p *tgbot.AnswerCallbackQueryParams) (bool, error) {
	r.answered = append(r.answered, p)
	return true, nil
}

func (r *apiRecorder) DeleteMessage(_ context.Context, p *tgbot.DeleteMessageParams) (bool, error) {
	r.deleted = append(r.deleted, p)
	return true, nil
}

func newBotDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("bot_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := db.AutoMigrate(&domain.User{}, &domain.Topic{}, &domain.FAQ{}, &domain.Message{}, &domain.StatsCounter{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// newTestService wires a Service against stubs instead of a live Telegram
// connection.
func newTestService(t *testing.T, db *gorm.DB, member *stubMemberGetter) (*Service, *apiRecorder) {
	t.Helper()

	rec := &apiRecorder{}
	s := &Service{
		api:     rec,
		gate:    NewGate(member, "@dustliknews", zerolog.Nop()),
		conv:    services.NewConversationService(db),
		know:    services.NewKnowledgeService(db),
		ai:      ai.New("", "gpt-4o-mini", ""),
		joinURL: "https://t.me/dustliknews",
		log:     zerolog.Nop(),
	}
	return s, rec
}

func subscribedStub() *stubMemberGetter {
	return &stubMemberGetter{member: &models.ChatMember{Type: models.ChatMemberTypeMember}}
}

func leftStub() *stubMemberGetter {
	return &stubMemberGetter{member: &models.ChatMember{Type: models.ChatMemberTypeLeft}}
}

func textUpdate(text string) *models.Update {
	return &models.Update{
		Message: &models.Message{
			ID:   10,
			Text: text,
			From: &models.User{ID: 5001, FirstName: "Ali", LastName: "Valiyev", Username: "ali", LanguageCode: "uz"},
			Chat: models.Chat{ID: 5001},
		},
	}
}

func storedMessages(t *testing.T, db *gorm.DB) []domain.Message {
	t.Helper()
	var out []domain.Message
	if err := db.Order("id ASC").Find(&out).Error; err != nil {
		t.Fatalf("load messages: %v", err)
	}
	return out
}

func TestHandleStart_SubscribedUser(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	s.handleStart(context.Background(), nil, textUpdate("/start"))

	if len(rec.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(rec.sent))
	}
	if !strings.Contains(rec.sent[0].Text, "Ali Valiyev") {
		t.Fatalf("welcome does not greet by name: %q", rec.sent[0].Text)
	}
	if _, ok := rec.sent[0].ReplyMarkup.(*models.ReplyKeyboardMarkup); !ok {
		t.Fatalf("welcome keyboard: %T", rec.sent[0].ReplyMarkup)
	}

	msgs := storedMessages(t, db)
	if len(msgs) != 1 || msgs[0].Text != "/start" || msgs[0].Role != domain.RoleUser {
		t.Fatalf("stored messages: %+v", msgs)
	}

	var u domain.User
	if err := db.Where("telegram_id = ?", int64(5001)).First(&u).Error; err != nil {
		t.Fatalf("user not registered: %v", err)
	}
}

func TestHandleStart_UnsubscribedGetsJoinPrompt(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, leftStub())

	s.handleStart(context.Background(), nil, textUpdate("/start"))

	if len(rec.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(rec.sent))
	}
	kb, ok := rec.sent[0].ReplyMarkup.(*models.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("join keyboard: %T", rec.sent[0].ReplyMarkup)
	}
	if kb.InlineKeyboard[1][0].CallbackData != callbackCheckSubscription {
		t.Fatalf("re-check button: %+v", kb.InlineKeyboard)
	}

	// The /start itself is still recorded.
	if msgs := storedMessages(t, db); len(msgs) != 1 {
		t.Fatalf("stored %d messages; want 1", len(msgs))
	}
}

func TestHandleTopic_AnswersFromFAQ(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	topic := domain.Topic{Slug: "passport", Title: "Pasport olish/almashtirish", Emoji: "🪪", IsActive: true}
	if err := db.Create(&topic).Error; err != nil {
		t.Fatalf("seed topic: %v", err)
	}
	if err := db.Create(&domain.FAQ{TopicID: topic.ID, Question: "q", Answer: "Pasport uchun IDda ariza bering.", IsActive: true}).Error; err != nil {
		t.Fatalf("seed faq: %v", err)
	}

	s.handleTopic(context.Background(), nil, textUpdate("🪪 Pasport olish/almashtirish"))

	if len(rec.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(rec.sent))
	}
	if !strings.Contains(rec.sent[0].Text, "Pasport uchun IDda ariza bering.") {
		t.Fatalf("reply missing FAQ answer: %q", rec.sent[0].Text)
	}

	msgs := storedMessages(t, db)
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages; want 2 (user + bot)", len(msgs))
	}
	for _, m := range msgs {
		if m.TopicID == nil || *m.TopicID != topic.ID {
			t.Fatalf("message not linked to topic: %+v", m)
		}
	}
	if msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleBot {
		t.Fatalf("roles: %q, %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestHandleTopic_NoFAQComingSoon(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	topic := domain.Topic{Slug: "school", Title: "Maktabga qabul", Emoji: "🏫", IsActive: true}
	if err := db.Create(&topic).Error; err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	s.handleTopic(context.Background(), nil, textUpdate("🏫 Maktabga qabul"))

	if len(rec.sent) != 1 {
		t.Fatalf("sent %d messages; want 1", len(rec.sent))
	}
	if !strings.Contains(rec.sent[0].Text, "yaqinda qo'shiladi") {
		t.Fatalf("expected coming-soon reply: %q", rec.sent[0].Text)
	}
	if msgs := storedMessages(t, db); len(msgs) != 2 {
		t.Fatalf("stored %d messages; want 2", len(msgs))
	}
}

func TestHandleTopic_UnknownTopicNotRecorded(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	// Valid button, but no topic row exists for it.
	s.handleTopic(context.Background(), nil, textUpdate("🚔 Jarimalar"))

	if len(rec.sent) != 1 || rec.sent[0].Text != topicUnavailableText {
		t.Fatalf("unexpected reply: %+v", rec.sent)
	}
	if msgs := storedMessages(t, db); len(msgs) != 0 {
		t.Fatalf("stored %d messages; want 0 for unavailable topic", len(msgs))
	}
}

func TestHandleFreeText_FallbackWhenAIDisabled(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	s.handleFreeText(context.Background(), nil, textUpdate("Bolalar nafaqasi qancha?"))

	if len(rec.sent) != 1 || rec.sent[0].Text != fallbackText {
		t.Fatalf("expected fallback reply, got: %+v", rec.sent)
	}

	msgs := storedMessages(t, db)
	if len(msgs) != 2 {
		t.Fatalf("stored %d messages; want 2", len(msgs))
	}
	if msgs[0].TopicID != nil || msgs[1].TopicID != nil {
		t.Fatalf("free text must not be topic-linked: %+v", msgs)
	}
	if msgs[1].Text != fallbackText {
		t.Fatalf("bot reply stored as %q", msgs[1].Text)
	}
}

func TestHandleFreeText_IgnoresReservedAndEmpty(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	s.handleFreeText(context.Background(), nil, textUpdate(catalog.LabelMainMenu))
	s.handleFreeText(context.Background(), nil, textUpdate("   "))
	s.handleFreeText(context.Background(), nil, &models.Update{})

	if len(rec.sent) != 0 {
		t.Fatalf("sent %d messages; want 0", len(rec.sent))
	}
	if msgs := storedMessages(t, db); len(msgs) != 0 {
		t.Fatalf("stored %d messages; want 0", len(msgs))
	}
}

func TestRequireSubscription_BlocksAndPasses(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, leftStub())

	var called bool
	next := func(ctx context.Context, b *tgbot.Bot, u *models.Update) { called = true }
	mw := s.requireSubscription(next)

	// Non-subscriber is stopped and prompted.
	mw(context.Background(), nil, textUpdate("🏫 Maktabga qabul"))
	if called {
		t.Fatal("next called for non-subscriber")
	}
	if len(rec.sent) != 1 || rec.sent[0].Text != subscriptionRequiredText {
		t.Fatalf("expected subscription prompt: %+v", rec.sent)
	}

	// /start always passes.
	mw(context.Background(), nil, textUpdate("/start"))
	if !called {
		t.Fatal("/start blocked by gate")
	}

	// Callback queries pass so the re-check button keeps working.
	called = false
	mw(context.Background(), nil, &models.Update{CallbackQuery: &models.CallbackQuery{ID: "cb1", Data: callbackCheckSubscription}})
	if !called {
		t.Fatal("callback query blocked by gate")
	}
}

func TestHandleCheckSubscription_Confirmed(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, subscribedStub())

	update := &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb1",
			From: models.User{ID: 5001, FirstName: "Ali", Username: "ali"},
			Data: callbackCheckSubscription,
			Message: models.MaybeInaccessibleMessage{
				Message: &models.Message{ID: 77, Chat: models.Chat{ID: 5001}},
			},
		},
	}

	s.handleCheckSubscription(context.Background(), nil, update)

	if len(rec.answered) != 1 || rec.answered[0].Text != subscriptionConfirmedToast || rec.answered[0].ShowAlert {
		t.Fatalf("toast: %+v", rec.answered)
	}
	if len(rec.deleted) != 1 || rec.deleted[0].MessageID != 77 {
		t.Fatalf("prompt not deleted: %+v", rec.deleted)
	}
	if len(rec.sent) != 1 {
		t.Fatalf("sent %d messages; want welcome", len(rec.sent))
	}
	if _, ok := rec.sent[0].ReplyMarkup.(*models.ReplyKeyboardMarkup); !ok {
		t.Fatalf("welcome keyboard: %T", rec.sent[0].ReplyMarkup)
	}
}

func TestHandleCheckSubscription_StillOutside(t *testing.T) {
	db := newBotDB(t)
	s, rec := newTestService(t, db, leftStub())

	update := &models.Update{
		CallbackQuery: &models.CallbackQuery{
			ID:   "cb1",
			From: models.User{ID: 5001},
			Data: callbackCheckSubscription,
		},
	}

	s.handleCheckSubscription(context.Background(), nil, update)

	if len(rec.answered) != 1 || !rec.answered[0].ShowAlert {
		t.Fatalf("expected alert popup: %+v", rec.answered)
	}
	if len(rec.sent) != 0 || len(rec.deleted) != 0 {
		t.Fatalf("no other side effects expected: sent=%d deleted=%d", len(rec.sent), len(rec.deleted))
	}
}

func TestMainMenuKeyboard_Layout(t *testing.T) {
	kb := mainMenuKeyboard()

	// Ten topics in two columns plus the ask-question row.
	if len(kb.Keyboard) != 6 {
		t.Fatalf("rows = %d; want 6", len(kb.Keyboard))
	}
	for i := 0; i < 5; i++ {
		if len(kb.Keyboard[i]) != 2 {
			t.Fatalf("row %d has %d buttons; want 2", i, len(kb.Keyboard[i]))
		}
	}
	last := kb.Keyboard[5]
	if len(last) != 1 || last[0].Text != catalog.LabelAskQuestion {
		t.Fatalf("last row: %+v", last)
	}
	if !kb.ResizeKeyboard {
		t.Fatal("ResizeKeyboard not set")
	}
}
