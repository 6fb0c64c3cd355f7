package usage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type rebuildCall struct {
	date       time.Time
	country    string
	department string
}

type mockRepo struct {
	rebuilds   []rebuildCall
	aggregates []*Aggregate
}

func (m *mockRepo) Rebuild(_ context.Context, usageDate time.Time, country, department string) error {
	m.rebuilds = append(m.rebuilds, rebuildCall{usageDate, country, department})
	return nil
}

func (m *mockRepo) QueryRange(_ context.Context, country, department string, from, to time.Time) ([]*Aggregate, error) {
	var result []*Aggregate
	for _, a := range m.aggregates {
		if a.UsageDate.Before(from) || a.UsageDate.After(to) {
			continue
		}
		if country != "" && a.Country != country {
			continue
		}
		if department != "" && a.Department != department {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func TestRecalculate(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo, zerolog.Nop())

	date := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	if err := svc.Recalculate(context.Background(), date, "SG", "Orthopedics"); err != nil {
		t.Fatalf("Recalculate failed: %v", err)
	}
	if len(repo.rebuilds) != 1 {
		t.Fatalf("rebuilds = %d, want 1", len(repo.rebuilds))
	}
	call := repo.rebuilds[0]
	if call.country != "SG" || call.department != "Orthopedics" {
		t.Errorf("unexpected rebuild call: %+v", call)
	}

	if err := svc.Recalculate(context.Background(), date, "", "Orthopedics"); err == nil {
		t.Error("expected error for missing country")
	}
}

func TestQuery_RangeAndScope(t *testing.T) {
	repo := &mockRepo{
		aggregates: []*Aggregate{
			{UsageDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), Country: "SG", Department: "Orthopedics", ItemType: "surgery_set", ItemName: "Knee Set A", TotalQuantity: 3},
			{UsageDate: time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC), Country: "MY", Department: "Spine", ItemType: "implant_box", ItemName: "Box 1", TotalQuantity: 1},
			{UsageDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Country: "SG", Department: "Orthopedics", ItemType: "surgery_set", ItemName: "Knee Set A", TotalQuantity: 2},
		},
	}
	svc := NewService(repo, zerolog.Nop())

	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	items, err := svc.Query(context.Background(), "SG", "", from, to)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(items) != 1 || items[0].ItemName != "Knee Set A" || items[0].TotalQuantity != 3 {
		t.Errorf("unexpected result: %+v", items)
	}

	if _, err := svc.Query(context.Background(), "SG", "", to, from); err == nil {
		t.Error("expected error for inverted range")
	}
}
