package services

import (
	"context"
	"errors"
	"testing"

	"github.com/dustlik/civicbot/internal/domain"
)

func TestConversationService_RecordAndList(t *testing.T) {
	db := newServiceDB(t)
	svc := NewConversationService(db)
	ctx := context.Background()

	u, err := svc.EnsureUser(ctx, 123, "abc", "Abc Def", "uz")
	if err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}

	if _, err := svc.Record(ctx, u.ID, domain.RoleUser, "savol", nil); err != nil {
		t.Fatalf("Record user: %v", err)
	}
	if _, err := svc.Record(ctx, u.ID, domain.RoleBot, "javob", nil); err != nil {
		t.Fatalf("Record bot: %v", err)
	}

	msgs, total, err := svc.ListMessages(ctx, nil, 0, 10)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if total != 2 || len(msgs) != 2 {
		t.Fatalf("got (%d, %d); want (2, 2)", total, len(msgs))
	}
	// Newest first.
	if msgs[0].Text != "javob" || msgs[1].Text != "savol" {
		t.Fatalf("unexpected order: %q, %q", msgs[0].Text, msgs[1].Text)
	}

	n, err := svc.CountUserMessages(ctx, u.ID)
	if err != nil || n != 2 {
		t.Fatalf("CountUserMessages = (%d, %v); want (2, nil)", n, err)
	}

	users, utotal, err := svc.ListUsers(ctx, "", 0, 10)
	if err != nil || utotal != 1 || len(users) != 1 {
		t.Fatalf("ListUsers = (%d users, total %d, %v)", len(users), utotal, err)
	}
}

func TestConversationService_NotFoundSentinels(t *testing.T) {
	db := newServiceDB(t)
	svc := NewConversationService(db)
	ctx := context.Background()

	if _, err := svc.GetUser(ctx, 42); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("GetUser: got %v; want ErrUserNotFound", err)
	}
	if _, err := svc.GetMessage(ctx, 42); !errors.Is(err, ErrMessageNotFound) {
		t.Fatalf("GetMessage: got %v; want ErrMessageNotFound", err)
	}
}
