package repo

import (
	"context"
	"testing"
	"time"

	"github.com/dustlik/civicbot/internal/domain"
)

func TestUpsertUser_CreatesOnFirstContact(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	u, created, err := UpsertUser(ctx, db, 555, "aziz", "Aziz Karimov", "uz-UZ")
	if err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if !created {
		t.Fatal("created = false on first contact")
	}
	if u.TelegramID != 555 || u.Username != "aziz" || u.FullName != "Aziz Karimov" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.LanguageCode != "uz" {
		t.Fatalf("language = %q; want normalized \"uz\"", u.LanguageCode)
	}
	if u.CreatedAt.IsZero() || u.LastActive.IsZero() {
		t.Fatalf("timestamps not set: %+v", u)
	}
}

func TestUpsertUser_RefreshesIdentityAndLastActive(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	first, _, err := UpsertUser(ctx, db, 555, "aziz", "Aziz", "uz")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// Telegram identity drifts; the row follows.
	time.Sleep(10 * time.Millisecond)
	second, created, err := UpsertUser(ctx, db, 555, "aziz_k", "Aziz Karimov", "uz")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("created = true on repeat contact")
	}
	if second.ID != first.ID {
		t.Fatalf("row identity changed: %d vs %d", second.ID, first.ID)
	}
	if second.FullName != "Aziz Karimov" || second.Username != "aziz_k" {
		t.Fatalf("identity not refreshed: %+v", second)
	}

	got, err := GetUser(ctx, db, first.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if !got.LastActive.After(first.LastActive) {
		t.Fatalf("last_active not advanced: %v vs %v", got.LastActive, first.LastActive)
	}
}

func TestUpsertUser_EmptyFieldsDoNotClobber(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	if _, _, err := UpsertUser(ctx, db, 555, "aziz", "Aziz Karimov", "uz"); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	u, _, err := UpsertUser(ctx, db, 555, "", "", "uz")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if u.Username != "aziz" || u.FullName != "Aziz Karimov" {
		t.Fatalf("empty update clobbered identity: %+v", u)
	}
}

func TestListUsersPage_SearchMatchesNameAndUsername(t *testing.T) {
	db := newTestDB(t, &domain.User{})
	ctx := context.Background()

	seed := []domain.User{
		{TelegramID: 1, Username: "gulnora", FullName: "Gulnora Yusupova"},
		{TelegramID: 2, Username: "b_rustam", FullName: "Rustam Bekov"},
		{TelegramID: 3, Username: "dildora93", FullName: "Dildora Qodirova"},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := ListUsersPage(ctx, db, "RUSTAM", 0, 10)
	if err != nil {
		t.Fatalf("ListUsersPage: %v", err)
	}
	if len(got) != 1 || got[0].TelegramID != 2 {
		t.Fatalf("search by name: %+v", got)
	}

	got, err = ListUsersPage(ctx, db, "dora9", 0, 10)
	if err != nil {
		t.Fatalf("ListUsersPage: %v", err)
	}
	if len(got) != 1 || got[0].TelegramID != 3 {
		t.Fatalf("search by username: %+v", got)
	}

	n, err := CountUsers(ctx, db, "")
	if err != nil || n != 3 {
		t.Fatalf("CountUsers = (%d, %v); want (3, nil)", n, err)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", "uz"},
		{"uz", "uz"},
		{"uz-UZ", "uz"},
		{"ru-RU", "ru"},
		{"en", "en"},
		{"##garbage##", "uz"},
	}
	for _, tc := range cases {
		if got := normalizeLanguage(tc.in); got != tc.want {
			t.Fatalf("normalizeLanguage(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}
