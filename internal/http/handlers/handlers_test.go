package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	jwt "github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dustlik/civicbot/internal/domain"
	"github.com/dustlik/civicbot/internal/services"
)

type env struct {
	db     *gorm.DB
	router *gin.Engine
	conv   *services.ConversationService
	know   *services.KnowledgeService
}

var testAuth = AuthConfig{
	Username: "admin",
	Password: "correct-horse",
	Secret:   []byte("handler-test-secret"),
	TokenTTL: time.Hour,
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("api_%d.db", time.Now().UnixNano()))
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

	conv := services.NewConversationService(db)
	know := services.NewKnowledgeService(db)
	h := New(conv, know, services.NewStatsService(db), testAuth)

	r := gin.New()
	registerTestRoutes(r, h)
	return &env{db: db, router: r, conv: conv, know: know}
}

// registerTestRoutes mirrors the production route table minus the middleware
// stack, so the handlers are exercised in isolation.
func registerTestRoutes(r *gin.Engine, h *Handlers) {
	r.POST("/auth/login", h.Login)
	r.GET("/users", h.ListUsers)
	r.GET("/users/:id", h.GetUser)
	r.GET("/messages", h.ListMessages)
	r.GET("/messages/:id", h.GetMessage)
	r.GET("/topics", h.ListTopics)
	r.POST("/topics", h.CreateTopic)
	r.GET("/topics/:id", h.GetTopic)
	r.PATCH("/topics/:id", h.UpdateTopic)
	r.DELETE("/topics/:id", h.DeleteTopic)
	r.GET("/faqs", h.ListFAQs)
	r.POST("/faqs", h.CreateFAQ)
	r.GET("/faqs/:id", h.GetFAQ)
	r.PATCH("/faqs/:id", h.UpdateFAQ)
	r.DELETE("/faqs/:id", h.DeleteFAQ)
	r.GET("/stats", h.Stats)
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestLogin(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodPost, "/auth/login", LoginRequest{Username: "admin", Password: "correct-horse"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body = %s", w.Code, w.Body.String())
	}
	resp := decode[LoginResponse](t, w)
	if resp.Token == "" {
		t.Fatal("empty token")
	}

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return testAuth.Secret, nil
	})
	if err != nil || !tok.Valid {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims["sub"] != "admin" || claims["iss"] != "civicbot-admin" {
		t.Fatalf("claims = %v", claims)
	}

	// Wrong password
	w = e.do(t, http.MethodPost, "/auth/login", LoginRequest{Username: "admin", Password: "nope"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeUnauthorized {
		t.Fatalf("code = %q", er.Code)
	}

	// Missing fields
	w = e.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password status = %d", w.Code)
	}
}

func TestTopicCRUD(t *testing.T) {
	e := newEnv(t)

	// Create
	w := e.do(t, http.MethodPost, "/topics", TopicPayload{Slug: "passport", Title: "Pasport", Emoji: "🪪", Order: 3})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body = %s", w.Code, w.Body.String())
	}
	created := decode[TopicView](t, w)
	if created.ID == 0 || !created.IsActive {
		t.Fatalf("created = %+v", created)
	}

	// Duplicate slug
	w = e.do(t, http.MethodPost, "/topics", TopicPayload{Slug: "passport", Title: "Boshqa"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate status = %d", w.Code)
	}
	if er := decode[ErrorResponse](t, w); er.Code != ErrCodeSlugTaken {
		t.Fatalf("code = %q", er.Code)
	}

	// List includes faq_count
	if err := e.know.CreateFAQ(context.Background(), &domain.FAQ{TopicID: created.ID, Question: "q", Answer: "a", IsActive: true}); err != nil {
		t.Fatalf("seed faq: %v", err)
	}
	w = e.do(t, http.MethodGet, "/topics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	list := decode[struct {
		Topics []TopicView `json:"topics"`
	}](t, w)
	if len(list.Topics) != 1 || list.Topics[0].FAQCount != 1 {
		t.Fatalf("list = %+v", list)
	}

	// Detail with FAQs
	w = e.do(t, http.MethodGet, fmt.Sprintf("/topics/%d", created.ID), nil)
	detail := decode[TopicDetail](t, w)
	if len(detail.FAQs) != 1 || detail.FAQs[0].Question != "q" {
		t.Fatalf("detail = %+v", detail)
	}

	// Patch: deactivate and retitle
	inactive := false
	w = e.do(t, http.MethodPatch, fmt.Sprintf("/topics/%d", created.ID), TopicPatch{Title: ptr("Pasport xizmati"), IsActive: &inactive})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d; body = %s", w.Code, w.Body.String())
	}
	patched := decode[TopicView](t, w)
	if patched.Title != "Pasport xizmati" || patched.IsActive {
		t.Fatalf("patched = %+v", patched)
	}

	// Patch may not blank the title
	w = e.do(t, http.MethodPatch, fmt.Sprintf("/topics/%d", created.ID), TopicPatch{Title: ptr("  ")})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("blank title status = %d", w.Code)
	}

	// Delete, then 404
	w = e.do(t, http.MethodDelete, fmt.Sprintf("/topics/%d", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, fmt.Sprintf("/topics/%d", created.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("post-delete get status = %d", w.Code)
	}

	// Garbage id
	w = e.do(t, http.MethodGet, "/topics/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("garbage id status = %d", w.Code)
	}
}

func TestFAQEndpoints(t *testing.T) {
	e := newEnv(t)

	topic := domain.Topic{Slug: "fines", Title: "Jarimalar", IsActive: true}
	if err := e.know.CreateTopic(context.Background(), &topic); err != nil {
		t.Fatalf("seed topic: %v", err)
	}

	// Create under missing topic is a client error
	w := e.do(t, http.MethodPost, "/faqs", FAQPayload{TopicID: 9999, Question: "q", Answer: "a"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing topic status = %d; body = %s", w.Code, w.Body.String())
	}

	w = e.do(t, http.MethodPost, "/faqs", FAQPayload{TopicID: topic.ID, Question: "Jarimani qanday to'layman?", Answer: "ID orqali."})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d; body = %s", w.Code, w.Body.String())
	}
	created := decode[FAQView](t, w)

	// Filtered list
	w = e.do(t, http.MethodGet, fmt.Sprintf("/faqs?topic_id=%d", topic.ID), nil)
	list := decode[struct {
		FAQs []FAQView `json:"faqs"`
	}](t, w)
	if len(list.FAQs) != 1 || list.FAQs[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}

	// Patch the answer
	w = e.do(t, http.MethodPatch, fmt.Sprintf("/faqs/%d", created.ID), FAQPatch{Answer: ptr("Yangilangan javob.")})
	if w.Code != http.StatusOK {
		t.Fatalf("patch status = %d", w.Code)
	}
	if got := decode[FAQView](t, w); got.Answer != "Yangilangan javob." {
		t.Fatalf("patched = %+v", got)
	}

	// Delete, then 404
	w = e.do(t, http.MethodDelete, fmt.Sprintf("/faqs/%d", created.ID), nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, fmt.Sprintf("/faqs/%d", created.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("post-delete get status = %d", w.Code)
	}
}

func TestUserAndMessageEndpoints(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.conv.EnsureUser(ctx, 7700, "gulnora", "Gulnora Karimova", "uz")
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := e.conv.Record(ctx, u.ID, domain.RoleUser, "salom", nil); err != nil {
		t.Fatalf("seed message: %v", err)
	}
	if _, err := e.conv.Record(ctx, u.ID, domain.RoleBot, "va alaykum assalom", nil); err != nil {
		t.Fatalf("seed message: %v", err)
	}

	// User list with pagination envelope
	w := e.do(t, http.MethodGet, "/users?page=1&page_size=10", nil)
	users := decode[ListUsersResponse](t, w)
	if len(users.Users) != 1 || users.Pagination.Total != 1 || users.Pagination.HasNext {
		t.Fatalf("users = %+v", users)
	}

	// User detail carries the live message count
	w = e.do(t, http.MethodGet, fmt.Sprintf("/users/%d", u.ID), nil)
	detail := decode[UserDetail](t, w)
	if detail.MessageCount != 2 || detail.FullName != "Gulnora Karimova" {
		t.Fatalf("detail = %+v", detail)
	}

	// Unknown user
	w = e.do(t, http.MethodGet, "/users/9999", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown user status = %d", w.Code)
	}

	// Messages newest first, user name denormalized
	w = e.do(t, http.MethodGet, fmt.Sprintf("/messages?user_id=%d", u.ID), nil)
	msgs := decode[ListMessagesResponse](t, w)
	if len(msgs.Messages) != 2 || msgs.Pagination.Total != 2 {
		t.Fatalf("messages = %+v", msgs)
	}
	if msgs.Messages[0].Text != "va alaykum assalom" {
		t.Fatalf("order: %+v", msgs.Messages)
	}
	if msgs.Messages[0].UserName != "Gulnora Karimova" {
		t.Fatalf("user name = %q", msgs.Messages[0].UserName)
	}

	// Invalid filter
	w = e.do(t, http.MethodGet, "/messages?user_id=0", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter status = %d", w.Code)
	}
}

func TestStats_EmptyDatabase(t *testing.T) {
	e := newEnv(t)

	w := e.do(t, http.MethodGet, "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	resp := decode[StatsResponse](t, w)
	if resp.TotalUsers != 0 || resp.TotalMessages != 0 || resp.Error != "" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Daily) != 7 {
		t.Fatalf("daily series length = %d; want 7", len(resp.Daily))
	}
}

// failingStats stands in for a broken aggregation backend.
type failingStats struct{}

func (failingStats) Overview(context.Context) (*services.Overview, error) {
	return nil, errors.New("no such table: users")
}

func TestStats_DegradedStays200(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(nil, nil, failingStats{}, testAuth)
	r := gin.New()
	r.GET("/stats", h.Stats)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("degraded status = %d; want 200", w.Code)
	}
	resp := decode[map[string]json.RawMessage](t, w)
	if string(resp["error"]) != `"no such table: users"` {
		t.Fatalf("error field = %s", resp["error"])
	}
	// Series must be empty arrays, not null, so dashboards render cleanly.
	if string(resp["daily_messages"]) != "[]" || string(resp["top_topics"]) != "[]" {
		t.Fatalf("series = %s / %s", resp["daily_messages"], resp["top_topics"])
	}
	if string(resp["total_users"]) != "0" {
		t.Fatalf("total_users = %s", resp["total_users"])
	}
}

func TestPaginationHelpers(t *testing.T) {
	p := paginate(2, 20, 45)
	if p.TotalPages != 3 || !p.HasNext {
		t.Fatalf("paginate = %+v", p)
	}
	p = paginate(3, 20, 45)
	if p.HasNext {
		t.Fatalf("last page reports next: %+v", p)
	}
	p = paginate(1, 20, 0)
	if p.TotalPages != 0 || p.HasNext {
		t.Fatalf("empty = %+v", p)
	}
}

func ptr[T any](v T) *T { return &v }
