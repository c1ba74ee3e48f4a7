package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chemviz/equipment-api/internal/domain"
	"github.com/chemviz/equipment-api/internal/normalizer"
	"github.com/chemviz/equipment-api/internal/repository"
)

// Service runs the upload workflow: normalize raw tabular content,
// then commit the resulting records as one dataset through the
// retention store's atomic create-and-evict unit.
type Service struct {
	datasets       repository.DatasetRepository
	maxUploadBytes int
	logger         *zap.Logger
}

// NewService creates an ingestion service. maxUploadBytes bounds
// accepted payloads; zero disables the check.
func NewService(datasets repository.DatasetRepository, maxUploadBytes int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		datasets:       datasets,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Ingest validates and persists one upload. On validation failure it
// returns the complete *domain.ValidationFailure and commits nothing;
// on storage failure the whole unit rolls back.
func (s *Service) Ingest(ctx context.Context, ownerID uuid.UUID, fileName string, payload []byte) (domain.Dataset, error) {
	if ownerID == uuid.Nil {
		return domain.Dataset{}, errors.New("owner id is required")
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return domain.Dataset{}, errors.New("file name is required")
	}
	if len(payload) == 0 {
		return domain.Dataset{}, domain.NewValidationFailure(domain.ValidationError{
			Message: "file is empty",
		})
	}

	records, err := normalizer.Normalize(fileName, payload, s.maxUploadBytes)
	if err != nil {
		if failure, ok := domain.AsValidationFailure(err); ok {
			s.logger.Info("upload rejected",
				zap.String("file", fileName),
				zap.Stringer("owner", ownerID),
				zap.Int("errors", len(failure.Errors)),
			)
		}
		return domain.Dataset{}, err
	}

	dataset, err := s.datasets.CreateDataset(ctx, ownerID, fileName, records)
	if err != nil {
		return domain.Dataset{}, fmt.Errorf("failed to store dataset: %w", err)
	}

	s.logger.Info("dataset ingested",
		zap.String("file", fileName),
		zap.Stringer("owner", ownerID),
		zap.Stringer("dataset", dataset.ID),
		zap.Int("rows", dataset.RowCount),
	)

	return dataset, nil
}
