package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_StaleIffPastTTL(t *testing.T) {
	s := NewMemory(0)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }

	key := Key{TenantID: "demo", Kind: KindShiftList}
	s.Put(context.Background(), key, []byte("x"), 300*time.Second)

	// justo en el límite: todavía fresco
	now = now.Add(300 * time.Second)
	if _, stale, ok := s.Get(context.Background(), key); !ok || stale {
		t.Fatalf("at ttl boundary: ok=%v stale=%v, want fresh hit", ok, stale)
	}

	// un segundo después: vencido pero presente
	now = now.Add(time.Second)
	payload, stale, ok := s.Get(context.Background(), key)
	if !ok || !stale {
		t.Fatalf("past ttl: ok=%v stale=%v, want stale hit", ok, stale)
	}
	if string(payload) != "x" {
		t.Fatalf("stale payload lost: %q", payload)
	}
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	s := NewMemory(0)
	key := Key{TenantID: "demo", Kind: KindShiftList}
	s.Put(context.Background(), key, []byte("intact"), time.Minute)

	got, _, ok := s.Get(context.Background(), key)
	if !ok {
		t.Fatal("expected hit")
	}
	got[0] = 'X'

	again, _, _ := s.Get(context.Background(), key)
	if string(again) != "intact" {
		t.Fatalf("caller mutation corrupted cached entry: %q", again)
	}
}

func TestMemory_PutOverwrites(t *testing.T) {
	s := NewMemory(0)
	key := Key{TenantID: "demo", Kind: KindShiftList}

	s.Put(context.Background(), key, []byte("old"), time.Minute)
	s.Put(context.Background(), key, []byte("new"), time.Minute)

	payload, _, ok := s.Get(context.Background(), key)
	if !ok || string(payload) != "new" {
		t.Fatalf("got %q ok=%v, want overwrite", payload, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("len=%d, want 1 (at most one entry per key)", s.Len())
	}
}

func TestMemory_Invalidate(t *testing.T) {
	s := NewMemory(0)
	key := Key{TenantID: "demo", Kind: KindShiftList}
	s.Put(context.Background(), key, []byte("x"), time.Minute)

	s.Invalidate(context.Background(), key)
	if _, _, ok := s.Get(context.Background(), key); ok {
		t.Fatal("entry survived Invalidate")
	}
}

func TestMemory_InvalidateTenant_LeavesOthers(t *testing.T) {
	s := NewMemory(0)
	ctx := context.Background()
	s.Put(ctx, Key{TenantID: "a", Kind: KindShiftList}, []byte("1"), time.Minute)
	s.Put(ctx, Key{TenantID: "a", Kind: KindLeaderboard, Params: "month"}, []byte("2"), time.Minute)
	s.Put(ctx, Key{TenantID: "b", Kind: KindShiftList}, []byte("3"), time.Minute)

	s.InvalidateTenant(ctx, "a")

	if _, _, ok := s.Get(ctx, Key{TenantID: "a", Kind: KindShiftList}); ok {
		t.Fatal("tenant a shifts survived cascade")
	}
	if _, _, ok := s.Get(ctx, Key{TenantID: "a", Kind: KindLeaderboard, Params: "month"}); ok {
		t.Fatal("tenant a leaderboard survived cascade")
	}
	if _, _, ok := s.Get(ctx, Key{TenantID: "b", Kind: KindShiftList}); !ok {
		t.Fatal("tenant b entry lost")
	}
}

func TestMemory_CapacityCapEvictsOldest(t *testing.T) {
	s := NewMemory(2)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return now }
	ctx := context.Background()

	s.Put(ctx, Key{TenantID: "t1", Kind: KindShiftList}, []byte("1"), time.Minute)
	now = now.Add(time.Second)
	s.Put(ctx, Key{TenantID: "t2", Kind: KindShiftList}, []byte("2"), time.Minute)
	now = now.Add(time.Second)
	s.Put(ctx, Key{TenantID: "t3", Kind: KindShiftList}, []byte("3"), time.Minute)

	if s.Len() != 2 {
		t.Fatalf("len=%d, want cap 2", s.Len())
	}
	if _, _, ok := s.Get(ctx, Key{TenantID: "t1", Kind: KindShiftList}); ok {
		t.Fatal("oldest entry not evicted")
	}
	if _, _, ok := s.Get(ctx, Key{TenantID: "t3", Kind: KindShiftList}); !ok {
		t.Fatal("newest entry missing")
	}
}
