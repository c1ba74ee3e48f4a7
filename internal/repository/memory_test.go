package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/chemviz/equipment-api/internal/domain"
)

func sampleRecord(name string) domain.Record {
	return domain.Record{
		domain.FieldEquipmentName: name,
		domain.FieldType:          "pump",
		domain.FieldFlowrate:      120.0,
		domain.FieldPressure:      5.2,
		domain.FieldTemperature:   110.0,
	}
}

func TestMemoryCreateAndGet(t *testing.T) {
	repo := NewMemoryRepository(5)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := repo.CreateDataset(ctx, ownerID, "plant.csv", []domain.Record{sampleRecord("Pump-1")})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if created.RowCount != 1 {
		t.Fatalf("expected row count 1, got %d", created.RowCount)
	}

	got, err := repo.GetByID(ctx, ownerID, created.ID)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if len(got.Equipment) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got.Equipment))
	}
	if got.Equipment[0].EquipmentName != "Pump-1" {
		t.Errorf("expected Pump-1, got %q", got.Equipment[0].EquipmentName)
	}
	if got.Equipment[0].Flowrate != 120.0 {
		t.Errorf("expected flowrate 120.0, got %v", got.Equipment[0].Flowrate)
	}
}

func TestMemoryGetForeignOwnerNotFound(t *testing.T) {
	repo := NewMemoryRepository(5)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := repo.CreateDataset(ctx, ownerID, "plant.csv", []domain.Record{sampleRecord("Pump-1")})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if _, err := repo.GetByID(ctx, uuid.New(), created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestMemoryRetentionEvictsOldest(t *testing.T) {
	const limit = 5
	const uploads = 8

	repo := NewMemoryRepository(limit)
	ctx := context.Background()
	ownerID := uuid.New()

	var ids []uuid.UUID
	for i := 0; i < uploads; i++ {
		created, err := repo.CreateDataset(ctx, ownerID, fmt.Sprintf("upload-%d.csv", i), []domain.Record{sampleRecord("Pump-1")})
		if err != nil {
			t.Fatalf("create %d returned error: %v", i, err)
		}
		ids = append(ids, created.ID)
	}

	datasets, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(datasets) != limit {
		t.Fatalf("expected %d retained datasets, got %d", limit, len(datasets))
	}

	// Newest first, and exactly the last `limit` creations survive.
	for i, dataset := range datasets {
		want := ids[uploads-1-i]
		if dataset.ID != want {
			t.Errorf("position %d: expected dataset %s, got %s", i, want, dataset.ID)
		}
	}

	// Evicted datasets are gone along with their records.
	for _, evicted := range ids[:uploads-limit] {
		if _, err := repo.GetByID(ctx, ownerID, evicted); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected evicted dataset %s to be gone, got %v", evicted, err)
		}
	}
}

func TestMemoryRetentionConcurrentCreates(t *testing.T) {
	const limit = 5

	repo := NewMemoryRepository(limit)
	ctx := context.Background()
	ownerID := uuid.New()

	for i := 0; i < limit-1; i++ {
		if _, err := repo.CreateDataset(ctx, ownerID, fmt.Sprintf("seed-%d.csv", i), []domain.Record{sampleRecord("Pump-1")}); err != nil {
			t.Fatalf("seed create returned error: %v", err)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := repo.CreateDataset(ctx, ownerID, fmt.Sprintf("race-%d.csv", i), []domain.Record{sampleRecord("Pump-1")}); err != nil {
				t.Errorf("concurrent create returned error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	datasets, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(datasets) != limit {
		t.Fatalf("owner must end at exactly %d datasets, got %d", limit, len(datasets))
	}
}

func TestMemoryRetentionIsPerOwner(t *testing.T) {
	repo := NewMemoryRepository(2)
	ctx := context.Background()
	first := uuid.New()
	second := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := repo.CreateDataset(ctx, first, "a.csv", []domain.Record{sampleRecord("Pump-1")}); err != nil {
			t.Fatalf("create returned error: %v", err)
		}
		if _, err := repo.CreateDataset(ctx, second, "b.csv", []domain.Record{sampleRecord("Pump-1")}); err != nil {
			t.Fatalf("create returned error: %v", err)
		}
	}

	for _, ownerID := range []uuid.UUID{first, second} {
		datasets, err := repo.ListByOwner(ctx, ownerID)
		if err != nil {
			t.Fatalf("list returned error: %v", err)
		}
		if len(datasets) != 2 {
			t.Fatalf("expected 2 datasets for owner %s, got %d", ownerID, len(datasets))
		}
	}
}

func TestMemoryDelete(t *testing.T) {
	repo := NewMemoryRepository(5)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := repo.CreateDataset(ctx, ownerID, "plant.csv", []domain.Record{sampleRecord("Pump-1")})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	if err := repo.Delete(ctx, ownerID, created.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if _, err := repo.GetByID(ctx, ownerID, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, ownerID, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeated delete, got %v", err)
	}
}

func TestMemoryRecordsSortedByName(t *testing.T) {
	repo := NewMemoryRepository(5)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := repo.CreateDataset(ctx, ownerID, "plant.csv", []domain.Record{
		sampleRecord("Valve-1"),
		sampleRecord("Compressor-1"),
		sampleRecord("Pump-1"),
	})
	if err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, ownerID, created.ID)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}

	names := []string{}
	for _, record := range got.Equipment {
		names = append(names, record.EquipmentName)
	}
	want := []string{"Compressor-1", "Pump-1", "Valve-1"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
}
