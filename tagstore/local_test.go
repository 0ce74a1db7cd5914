package tagstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalChecksumEmptyIsZero(t *testing.T) {
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	got, err := s.Checksum(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("got=%d want 0", got)
	}
}

func TestLocalChecksumChangesOnlyForAffectedTags(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	ab := []string{"a", "b"}
	c := []string{"c"}
	before, _ := s.Checksum(ctx, ab)
	beforeC, _ := s.Checksum(ctx, c)

	if err := s.Invalidate(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	after, _ := s.Checksum(ctx, ab)
	afterC, _ := s.Checksum(ctx, c)
	if before == after {
		t.Fatalf("checksum of {a,b} must change after invalidating b")
	}
	if beforeC != afterC {
		t.Fatalf("checksum of {c} must not change")
	}
	if s.Count("b") != 1 || s.Count("a") != 0 {
		t.Fatalf("counters: a=%d b=%d", s.Count("a"), s.Count("b"))
	}
}

func TestLocalChecksumDoesNotMutateInput(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	in := []string{"x", "y"}
	cp := append([]string(nil), in...)
	if _, err := s.Checksum(ctx, in); err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != cp[i] {
			t.Fatalf("input mutated at %d: %q -> %q", i, cp[i], in[i])
		}
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, time.Second)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if err := s.Invalidate(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(1200 * time.Millisecond)
	s.Cleanup(time.Second)

	if got := s.Count("old"); got != 0 {
		t.Fatalf("expected pruned -> 0, got %d", got)
	}
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	s := NewLocal(10*time.Millisecond, time.Minute)
	ctx := context.Background()
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestLocalPruneNeverRevivesStaleChecksum(t *testing.T) {
	ctx := context.Background()
	s := NewLocal(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	tags := []string{"node:1"}
	written, _ := s.Checksum(ctx, tags) // recorded before the tag was ever bumped

	if err := s.Invalidate(ctx, "node:1"); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	s.Cleanup(time.Millisecond)

	if got := s.Count("node:1"); got != 0 {
		t.Fatalf("expected pruned counter, got %d", got)
	}
	if got := s.Epoch(); got != 1 {
		t.Fatalf("epoch = %d, want 1", got)
	}
	after, _ := s.Checksum(ctx, tags)
	if after == written {
		t.Fatal("checksum returned to its pre-invalidation value after prune")
	}

	// nothing left to prune: epoch and checksums stay put
	s.Cleanup(time.Millisecond)
	if got := s.Epoch(); got != 1 {
		t.Fatalf("epoch = %d after empty cleanup", got)
	}
	if again, _ := s.Checksum(ctx, tags); again != after {
		t.Fatal("checksum moved without a prune or bump")
	}
}
