package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestRistrettoSyncReadAfterWrite(t *testing.T) {
	p, err := New(DefaultConfig(1000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(context.Background())
	ctx := context.Background()

	ok, err := p.Set(ctx, "var:ns:page", []byte("redirect"), 1, 0)
	if err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	b, ok, err := p.Get(ctx, "var:ns:page")
	if err != nil || !ok || string(b) != "redirect" {
		t.Fatalf("Get = %q ok=%v err=%v", b, ok, err)
	}

	if err := p.Del(ctx, "var:ns:page"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "var:ns:page"); ok {
		t.Fatal("expected miss after Del")
	}
}

func TestRistrettoTTL(t *testing.T) {
	p, err := New(DefaultConfig(1000))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer p.Close(context.Background())
	ctx := context.Background()

	if _, err := p.Set(ctx, "k", []byte("v"), 1, 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)
	if _, ok, _ := p.Get(ctx, "k"); ok {
		t.Fatal("expected expiry")
	}
}

func TestRistrettoInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for zero config")
	}
}
