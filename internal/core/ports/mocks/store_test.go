package mocks

import (
	"context"
	"errors"
	"testing"
)

var errCustomTest = errors.New("custom test error")

func TestStore_LatestCriterionPerUser(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_ = store.AppendCriterion(ctx, 1, "first")
	_ = store.AppendCriterion(ctx, 2, "other user")
	_ = store.AppendCriterion(ctx, 1, "second")

	got, ok, err := store.LatestCriterion(ctx, 1)
	if err != nil || !ok || got != "second" {
		t.Errorf("LatestCriterion(1) = (%q, %v, %v), want (second, true, nil)", got, ok, err)
	}

	if _, ok, _ := store.LatestCriterion(ctx, 3); ok {
		t.Error("LatestCriterion(3) should report no data")
	}
}

func TestStore_ListsDeduplicate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if added, _ := store.AddChat(ctx, 1, "@golang"); !added {
		t.Error("first AddChat should add")
	}

	if added, _ := store.AddChat(ctx, 1, "@golang"); added {
		t.Error("duplicate AddChat should not add")
	}

	_, _ = store.AddChat(ctx, 2, "@golang")

	chats, _ := store.ListChats(ctx, 1)
	if len(chats) != 1 {
		t.Errorf("ListChats(1) = %d entries, want 1", len(chats))
	}

	store.Clear()

	if chats, _ := store.ListChats(ctx, 2); len(chats) != 0 {
		t.Errorf("after Clear ListChats(2) = %d entries, want 0", len(chats))
	}
}

func TestStore_Overrides(t *testing.T) {
	store := NewStore()
	store.AppendCriterionFn = func(context.Context, int64, string) error { return errCustomTest }
	store.PingFn = func(context.Context) error { return errCustomTest }

	if err := store.AppendCriterion(context.Background(), 1, "x"); !errors.Is(err, errCustomTest) {
		t.Errorf("AppendCriterion() error = %v, want %v", err, errCustomTest)
	}

	if err := store.Ping(context.Background()); !errors.Is(err, errCustomTest) {
		t.Errorf("Ping() error = %v, want %v", err, errCustomTest)
	}
}
