package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/chemviz/equipment-api/internal/domain"
	"github.com/chemviz/equipment-api/internal/repository"
)

const validCSV = "Equipment Name,Type,Flowrate,Pressure,Temperature\nPump-1,Pump,120,5.2,110\nValve-1,Valve,60,4.1,105"

type stubDatasetRepo struct {
	created   []domain.Dataset
	records   [][]domain.Record
	createErr error
}

func (s *stubDatasetRepo) CreateDataset(ctx context.Context, ownerID uuid.UUID, filename string, records []domain.Record) (domain.Dataset, error) {
	if s.createErr != nil {
		return domain.Dataset{}, s.createErr
	}
	dataset := domain.NewDataset(ownerID, filename, len(records))
	s.created = append(s.created, dataset)
	s.records = append(s.records, records)
	return dataset, nil
}

func (s *stubDatasetRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Dataset, error) {
	return nil, errors.New("not implemented")
}

func (s *stubDatasetRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Dataset, error) {
	return domain.Dataset{}, errors.New("not implemented")
}

func (s *stubDatasetRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return errors.New("not implemented")
}

var _ repository.DatasetRepository = (*stubDatasetRepo)(nil)

func TestIngestStoresNormalizedRecords(t *testing.T) {
	repo := &stubDatasetRepo{}
	service := NewService(repo, 0, nil)
	ownerID := uuid.New()

	dataset, err := service.Ingest(context.Background(), ownerID, "plant.csv", []byte(validCSV))
	if err != nil {
		t.Fatalf("ingest returned error: %v", err)
	}

	if dataset.RowCount != 2 {
		t.Fatalf("expected row count 2, got %d", dataset.RowCount)
	}
	if dataset.OwnerID != ownerID {
		t.Fatalf("expected owner %s, got %s", ownerID, dataset.OwnerID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 dataset created, got %d", len(repo.created))
	}
	if len(repo.records[0]) != 2 {
		t.Fatalf("expected 2 records stored, got %d", len(repo.records[0]))
	}
	if repo.records[0][0].Type() != "pump" {
		t.Errorf("expected normalized type pump, got %q", repo.records[0][0].Type())
	}
}

func TestIngestValidationFailureCommitsNothing(t *testing.T) {
	repo := &stubDatasetRepo{}
	service := NewService(repo, 0, nil)

	_, err := service.Ingest(context.Background(), uuid.New(), "plant.csv", []byte("Equipment Name,Type,Flowrate,Pressure,Temperature\nPump-1,,120,5.2,110"))
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	failure, ok := domain.AsValidationFailure(err)
	if !ok {
		t.Fatalf("expected *domain.ValidationFailure, got %T", err)
	}
	if len(failure.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(failure.Errors))
	}
	if len(repo.created) != 0 {
		t.Fatalf("nothing may be committed on validation failure, got %d datasets", len(repo.created))
	}
}

func TestIngestStorageFailurePropagates(t *testing.T) {
	repo := &stubDatasetRepo{createErr: errors.New("connection reset")}
	service := NewService(repo, 0, nil)

	_, err := service.Ingest(context.Background(), uuid.New(), "plant.csv", []byte(validCSV))
	if err == nil {
		t.Fatalf("expected storage error")
	}
	if _, ok := domain.AsValidationFailure(err); ok {
		t.Fatalf("storage failure must not surface as validation failure")
	}
}

func TestIngestRejectsEmptyPayload(t *testing.T) {
	service := NewService(&stubDatasetRepo{}, 0, nil)

	_, err := service.Ingest(context.Background(), uuid.New(), "plant.csv", nil)
	failure, ok := domain.AsValidationFailure(err)
	if !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if failure.Errors[0].Message != "file is empty" {
		t.Errorf("unexpected message %q", failure.Errors[0].Message)
	}
}

func TestIngestEnforcesSizeLimit(t *testing.T) {
	repo := &stubDatasetRepo{}
	service := NewService(repo, 16, nil)

	_, err := service.Ingest(context.Background(), uuid.New(), "plant.csv", []byte(validCSV))
	failure, ok := domain.AsValidationFailure(err)
	if !ok {
		t.Fatalf("expected validation failure, got %v", err)
	}
	if len(failure.Errors) != 1 {
		t.Fatalf("expected 1 error, got %d", len(failure.Errors))
	}
	if len(repo.created) != 0 {
		t.Fatalf("oversized upload must not be committed")
	}
}

func TestIngestRequiresOwner(t *testing.T) {
	service := NewService(&stubDatasetRepo{}, 0, nil)

	if _, err := service.Ingest(context.Background(), uuid.Nil, "plant.csv", []byte(validCSV)); err == nil {
		t.Fatalf("expected error for missing owner")
	}
}
