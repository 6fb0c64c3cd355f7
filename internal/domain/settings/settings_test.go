package settings

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockRepo struct {
	store map[string]*Setting
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[string]*Setting)}
}

func (m *mockRepo) Get(_ context.Context, key string) (*Setting, error) {
	s, ok := m.store[key]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *mockRepo) Set(_ context.Context, s *Setting) error {
	m.store[s.Key] = s
	return nil
}

func (m *mockRepo) List(_ context.Context) ([]*Setting, error) {
	var result []*Setting
	for _, s := range m.store {
		result = append(result, s)
	}
	return result, nil
}

func (m *mockRepo) Delete(_ context.Context, key string) error {
	if _, ok := m.store[key]; !ok {
		return ErrNotFound
	}
	delete(m.store, key)
	return nil
}

func TestSet_StampsActorAndTime(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	setting, err := svc.Set(context.Background(), "notifications.enabled", true, "alice")
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if setting.UpdatedBy != "alice" {
		t.Errorf("updatedBy = %q", setting.UpdatedBy)
	}
	if !setting.UpdatedAt.Equal(fixed) {
		t.Errorf("updatedAt = %v", setting.UpdatedAt)
	}
}

func TestSet_OverwritesExisting(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, zerolog.Nop())

	if _, err := svc.Set(context.Background(), "theme", "light", "alice"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := svc.Set(context.Background(), "theme", "dark", "bob"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := svc.Get(context.Background(), "theme")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Value != "dark" || got.UpdatedBy != "bob" {
		t.Errorf("setting = %+v", got)
	}
}

func TestGet_MissingKey(t *testing.T) {
	svc := NewService(newMockRepo(), zerolog.Nop())
	if _, err := svc.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(context.Background(), ""); err == nil {
		t.Error("expected error for empty key")
	}
}
