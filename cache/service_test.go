package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

// mockCacheService records the entry it was asked for and returns a canned result
type mockCacheService struct {
	result  any
	err     error
	entries []Entry
	removed []string
}

func (m *mockCacheService) GetOrAdd(ctx context.Context, entry Entry) (any, error) {
	m.entries = append(m.entries, entry)
	return m.result, m.err
}

func (m *mockCacheService) Remove(ctx context.Context, key string) error {
	m.removed = append(m.removed, key)
	return nil
}

func TestGetOrAdd_NilInterfaceNoPanic(t *testing.T) {
	mock := &mockCacheService{result: nil}

	type SomeInterface interface {
		DoSomething() string
	}

	result, err := GetOrAdd[SomeInterface](context.Background(), mock, "test-key", time.Minute, false, func(ctx context.Context) (SomeInterface, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrAdd_NilPointerNoPanic(t *testing.T) {
	mock := &mockCacheService{result: (*string)(nil)}

	result, err := GetOrAdd[*string](context.Background(), mock, "test-key", time.Minute, false, func(ctx context.Context) (*string, error) {
		return nil, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != nil {
		t.Errorf("expected nil result but got: %v", result)
	}
}

func TestGetOrAdd_TypeAssertionFailure(t *testing.T) {
	mock := &mockCacheService{result: "wrong-type"}

	result, err := GetOrAdd[int](context.Background(), mock, "test-key", time.Minute, false, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if !errors.Is(err, ErrInvalidResultType) {
		t.Errorf("expected ErrInvalidResultType but got: %v", err)
	}

	if result != 0 {
		t.Errorf("expected zero value (0) but got: %v", result)
	}
}

func TestGetOrAdd_ValidResult(t *testing.T) {
	expectedValue := "test-value"
	mock := &mockCacheService{result: expectedValue}

	result, err := GetOrAdd[string](context.Background(), mock, "test-key", time.Minute, false, func(ctx context.Context) (string, error) {
		return expectedValue, nil
	})

	if err != nil {
		t.Errorf("expected no error but got: %v", err)
	}

	if result != expectedValue {
		t.Errorf("expected '%s' but got: '%s'", expectedValue, result)
	}
}

func TestGetOrAdd_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	mock := &mockCacheService{err: boom}

	_, err := GetOrAdd[string](context.Background(), mock, "test-key", time.Minute, false, func(ctx context.Context) (string, error) {
		return "", boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected boom but got: %v", err)
	}
}

func TestGetOrAdd_BuildsEntry(t *testing.T) {
	mock := &mockCacheService{result: 7}

	_, err := GetOrAdd[int](context.Background(), mock, "Enrollment-hack", 4*time.Hour, true, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(mock.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(mock.entries))
	}
	entry := mock.entries[0]
	if entry.Key != "Enrollment-hack" {
		t.Errorf("expected key Enrollment-hack, got %s", entry.Key)
	}
	if entry.TTL != 4*time.Hour {
		t.Errorf("expected TTL 4h, got %v", entry.TTL)
	}
	if !entry.AutoRefresh {
		t.Error("expected AutoRefresh to be set")
	}

	v, err := entry.Fetch(context.Background())
	if err != nil || v != 7 {
		t.Errorf("expected entry fetch to return 7, got %v (%v)", v, err)
	}
}

func TestNewCacheService_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Capacity = 0

	if _, err := NewCacheService(cfg, nil); err == nil {
		t.Error("expected error for zero capacity")
	}
}

func TestNewCacheService_ReadThrough(t *testing.T) {
	svc, err := NewCacheService(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := 0
	fetch := func(ctx context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrAdd(context.Background(), svc, "key", time.Minute, false, fetch)
		if err != nil || v != "value" {
			t.Fatalf("unexpected result %q (%v)", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch, got %d", calls)
	}

	if err := svc.Remove(context.Background(), "key"); err != nil {
		t.Fatalf("unexpected remove error: %v", err)
	}
	if _, err := GetOrAdd(context.Background(), svc, "key", time.Minute, false, fetch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected fetch after remove, got %d calls", calls)
	}
}
