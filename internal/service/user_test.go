package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/usermeta/usermeta/internal/model"
	"github.com/usermeta/usermeta/internal/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService() *UserService {
	return NewUserService(testutil.NewMemoryCollection(), testLogger())
}

func TestUserService_SaveUserRejectsMissingOwnerID(t *testing.T) {
	svc := newTestService()

	err := svc.SaveUser(context.Background(), model.UserRecord{Email: "a@x.com"})
	if !errors.Is(err, model.ErrMissingOwnerID) {
		t.Errorf("expected ErrMissingOwnerID, got %v", err)
	}
}

func TestUserService_SaveThenListReturnsOneRecord(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if err := svc.SaveUser(ctx, model.UserRecord{OwnerID: "alice", Email: "a@x.com"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records, err := svc.ListUsers(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Email != "a@x.com" {
		t.Errorf("unexpected email: %s", records[0].Email)
	}
}

func TestUserService_SecondSaveReplacesFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	if err := svc.SaveUser(ctx, model.UserRecord{OwnerID: "alice", Email: "a@x.com"}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := svc.SaveUser(ctx, model.UserRecord{OwnerID: "alice", Email: "b@x.com"}); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	records, err := svc.ListUsers(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after two saves, got %d", len(records))
	}
	if records[0].Email != "b@x.com" {
		t.Errorf("expected last write to win, got email %s", records[0].Email)
	}
}

func TestUserService_ListUnknownOwnerIsEmptyNotError(t *testing.T) {
	svc := newTestService()

	records, err := svc.ListUsers(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("expected no error for unknown owner, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected empty result, got %d records", len(records))
	}
}

func TestUserService_ListRequiresOwnerID(t *testing.T) {
	svc := newTestService()

	if _, err := svc.ListUsers(context.Background(), ""); !errors.Is(err, model.ErrMissingOwnerID) {
		t.Errorf("expected ErrMissingOwnerID, got %v", err)
	}
}

func TestUserService_DeleteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	// Deleting a never-written owner does not error
	if err := svc.DeleteUser(ctx, "ghost"); err != nil {
		t.Errorf("delete of absent record failed: %v", err)
	}

	if err := svc.SaveUser(ctx, model.UserRecord{OwnerID: "alice"}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := svc.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.DeleteUser(ctx, "alice"); err != nil {
		t.Errorf("second delete failed: %v", err)
	}

	records, err := svc.ListUsers(ctx, "alice")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records after delete, got %d", len(records))
	}
}
