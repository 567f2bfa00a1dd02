package storage

import (
	"context"
	"fmt"
	"testing"
)

func TestListVisibleHidesRestrictedFromRegularUsers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Add(ctx, "pub-1", VisibilityPublic); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, "vip-1", VisibilityRestricted); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, "pub-2", VisibilityPublic); err != nil {
		t.Fatalf("add: %v", err)
	}

	visible, err := store.ListVisible(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, fileID := range visible {
		if fileID == "vip-1" {
			t.Fatal("restricted entry visible to non-elevated user")
		}
	}
	if len(visible) != 2 || visible[0] != "pub-1" || visible[1] != "pub-2" {
		t.Fatalf("unexpected public listing: %v", visible)
	}
}

func TestListVisibleElevatedSeesAllInOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var want []string
	for i := 0; i < 10; i++ {
		fileID := fmt.Sprintf("wp-%d", i)
		vis := VisibilityPublic
		if i%3 == 0 {
			vis = VisibilityRestricted
		}
		id, err := store.Add(ctx, fileID, vis)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if id != int64(i+1) {
			t.Fatalf("id = %d, want %d", id, i+1)
		}
		want = append(want, fileID)
	}

	all, err := store.ListVisible(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i] != want[i] {
			t.Fatalf("all[%d] = %s, want %s", i, all[i], want[i])
		}
	}
}

func TestListVisibleEmptyCatalog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	visible, err := store.ListVisible(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(visible) != 0 {
		t.Fatalf("expected empty listing, got %v", visible)
	}
}

func TestAddRejectsInvalidVisibility(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Add(context.Background(), "wp", Visibility("secret")); err == nil {
		t.Fatal("expected error for invalid visibility")
	}
}

func TestOperatorMembershipIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.RevokeOperator(ctx, 7); err != nil {
		t.Fatalf("revoke absent: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := store.GrantOperator(ctx, 7); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}
	ok, err := store.IsOperator(ctx, 7)
	if err != nil || !ok {
		t.Fatalf("IsOperator = %v, %v", ok, err)
	}
	if err := store.RevokeOperator(ctx, 7); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	ok, err = store.IsOperator(ctx, 7)
	if err != nil || ok {
		t.Fatalf("IsOperator after revoke = %v, %v", ok, err)
	}
}

func TestEnsureUserKeepsElevation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.EnsureUser(ctx, 42); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	elevated, err := store.IsElevated(ctx, 42)
	if err != nil || elevated {
		t.Fatalf("new user elevated = %v, %v", elevated, err)
	}

	store.SetElevated(42, true)
	if err := store.EnsureUser(ctx, 42); err != nil {
		t.Fatalf("ensure again: %v", err)
	}
	elevated, err = store.IsElevated(ctx, 42)
	if err != nil || !elevated {
		t.Fatalf("elevation lost on re-ensure: %v, %v", elevated, err)
	}

	elevated, err = store.IsElevated(ctx, 99)
	if err != nil || elevated {
		t.Fatalf("unknown user elevated = %v, %v", elevated, err)
	}
}
