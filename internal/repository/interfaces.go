package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/chemviz/equipment-api/internal/domain"
)

// DatasetRepository defines the retention store contract. CreateDataset
// persists a dataset and its records as one atomic unit and evicts the
// owner's oldest datasets beyond the retention limit within the same
// unit; at no point observable to another reader does an owner hold
// more than the limit of datasets after a completed create.
type DatasetRepository interface {
	CreateDataset(ctx context.Context, ownerID uuid.UUID, filename string, records []domain.Record) (domain.Dataset, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Dataset, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Dataset, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}
