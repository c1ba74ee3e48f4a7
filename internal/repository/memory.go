package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/chemviz/equipment-api/internal/domain"
)

// memoryRepository is an in-process retention store with the same
// contract as the postgres implementation. It backs unit tests and
// local development without a database.
type memoryRepository struct {
	mu             sync.Mutex
	retentionLimit int
	byOwner        map[uuid.UUID][]storedDataset
	seq            uint64
}

type storedDataset struct {
	dataset domain.Dataset
	records []domain.EquipmentRecord
	seq     uint64
}

// NewMemoryRepository creates an in-memory retention store keeping at
// most retentionLimit datasets per owner.
func NewMemoryRepository(retentionLimit int) DatasetRepository {
	return &memoryRepository{
		retentionLimit: retentionLimit,
		byOwner:        make(map[uuid.UUID][]storedDataset),
	}
}

func (r *memoryRepository) CreateDataset(ctx context.Context, ownerID uuid.UUID, filename string, records []domain.Record) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	dataset := domain.NewDataset(ownerID, filename, len(records))
	stored := storedDataset{dataset: dataset, seq: r.nextSeq()}
	stored.records = make([]domain.EquipmentRecord, len(records))
	for i, record := range records {
		stored.records[i] = domain.EquipmentRecord{
			ID:            uuid.New(),
			DatasetID:     dataset.ID,
			EquipmentName: record.EquipmentName(),
			Type:          record.Type(),
			Flowrate:      record.Flowrate(),
			Pressure:      record.Pressure(),
			Temperature:   record.Temperature(),
		}
	}

	owned := append(r.byOwner[ownerID], stored)
	sortNewestFirst(owned)
	if len(owned) > r.retentionLimit {
		owned = owned[:r.retentionLimit]
	}
	r.byOwner[ownerID] = owned

	return dataset, nil
}

func (r *memoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.byOwner[ownerID]
	datasets := make([]domain.Dataset, len(owned))
	for i, stored := range owned {
		datasets[i] = stored.dataset
	}
	return datasets, nil
}

func (r *memoryRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return domain.Dataset{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, stored := range r.byOwner[ownerID] {
		if stored.dataset.ID != id {
			continue
		}
		dataset := stored.dataset
		dataset.Equipment = append([]domain.EquipmentRecord(nil), stored.records...)
		sort.Slice(dataset.Equipment, func(i, j int) bool {
			a, b := dataset.Equipment[i], dataset.Equipment[j]
			if a.EquipmentName != b.EquipmentName {
				return a.EquipmentName < b.EquipmentName
			}
			return a.ID.String() < b.ID.String()
		})
		return dataset, nil
	}
	return domain.Dataset{}, domain.ErrNotFound
}

func (r *memoryRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	owned := r.byOwner[ownerID]
	for i, stored := range owned {
		if stored.dataset.ID == id {
			r.byOwner[ownerID] = append(owned[:i], owned[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *memoryRepository) nextSeq() uint64 {
	r.seq++
	return r.seq
}

func sortNewestFirst(datasets []storedDataset) {
	sort.Slice(datasets, func(i, j int) bool {
		a, b := datasets[i], datasets[j]
		if !a.dataset.UploadedAt.Equal(b.dataset.UploadedAt) {
			return a.dataset.UploadedAt.After(b.dataset.UploadedAt)
		}
		return a.seq > b.seq
	})
}
