package bolt

import (
	"context"
	"errors"
	"goods-manager/core"
	"path/filepath"
	"testing"
)

func TestStore_RoundTripAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "goods.bolt")

	s := NewStore(path)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Get() error = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "k", []byte(`[1]`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Set(ctx, "k", []byte(`[2]`)); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s = NewStore(path)
	defer s.Close()
	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if string(got) != `[2]` {
		t.Errorf("Get() = %s, want [2]", got)
	}
}
