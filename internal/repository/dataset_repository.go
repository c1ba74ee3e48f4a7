package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chemviz/equipment-api/internal/db"
	"github.com/chemviz/equipment-api/internal/domain"
)

// datasetRepository implements DatasetRepository on postgres.
type datasetRepository struct {
	conn           *db.Connection
	retentionLimit int
}

// NewDatasetRepository creates a postgres-backed retention store that
// keeps at most retentionLimit datasets per owner.
func NewDatasetRepository(conn *db.Connection, retentionLimit int) DatasetRepository {
	return &datasetRepository{
		conn:           conn,
		retentionLimit: retentionLimit,
	}
}

// CreateDataset persists a dataset with its records and evicts the
// owner's surplus datasets in a single transaction. A per-owner
// advisory lock serializes concurrent creates for the same owner so
// the retention limit cannot be overshot by a lost update; creates for
// different owners do not contend.
func (r *datasetRepository) CreateDataset(ctx context.Context, ownerID uuid.UUID, filename string, records []domain.Record) (domain.Dataset, error) {
	dataset := domain.NewDataset(ownerID, filename, len(records))

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", ownerID.String()); err != nil {
			return fmt.Errorf("failed to acquire owner lock: %w", err)
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO datasets (id, user_id, filename, row_count)
			 VALUES ($1, $2, $3, $4)
			 RETURNING uploaded_at`,
			dataset.ID, dataset.OwnerID, dataset.Filename, dataset.RowCount,
		).Scan(&dataset.UploadedAt)
		if err != nil {
			return fmt.Errorf("failed to insert dataset: %w", err)
		}

		rows := make([][]any, len(records))
		for i, record := range records {
			rows[i] = []any{
				uuid.New(),
				dataset.ID,
				record.EquipmentName(),
				record.Type(),
				record.Flowrate(),
				record.Pressure(),
				record.Temperature(),
			}
		}
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"equipment"},
			[]string{"id", "dataset_id", "equipment_name", "type", "flowrate", "pressure", "temperature"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("failed to insert equipment records: %w", err)
		}

		// Evict everything older than the retentionLimit newest
		// datasets. Record cleanup rides on the FK cascade.
		if _, err := tx.Exec(ctx,
			`DELETE FROM datasets
			 WHERE user_id = $1
			   AND id NOT IN (
			     SELECT id FROM datasets
			     WHERE user_id = $1
			     ORDER BY uploaded_at DESC, id DESC
			     LIMIT $2
			   )`,
			ownerID, r.retentionLimit,
		); err != nil {
			return fmt.Errorf("failed to evict datasets: %w", err)
		}

		return nil
	})
	if err != nil {
		return domain.Dataset{}, err
	}

	return dataset, nil
}

// ListByOwner returns the owner's datasets newest first.
func (r *datasetRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Dataset, error) {
	rows, err := r.conn.Pool.Query(ctx,
		`SELECT id, user_id, filename, uploaded_at, row_count
		 FROM datasets
		 WHERE user_id = $1
		 ORDER BY uploaded_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []domain.Dataset{}
	for rows.Next() {
		var dataset domain.Dataset
		if err := rows.Scan(&dataset.ID, &dataset.OwnerID, &dataset.Filename, &dataset.UploadedAt, &dataset.RowCount); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read datasets: %w", err)
	}

	return datasets, nil
}

// GetByID returns one dataset with its records. Absent datasets and
// datasets owned by someone else both surface as domain.ErrNotFound.
func (r *datasetRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (domain.Dataset, error) {
	var dataset domain.Dataset
	err := r.conn.Pool.QueryRow(ctx,
		`SELECT id, user_id, filename, uploaded_at, row_count
		 FROM datasets
		 WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	).Scan(&dataset.ID, &dataset.OwnerID, &dataset.Filename, &dataset.UploadedAt, &dataset.RowCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Dataset{}, domain.ErrNotFound
		}
		return domain.Dataset{}, fmt.Errorf("failed to get dataset: %w", err)
	}

	records, err := r.recordsForDataset(ctx, id)
	if err != nil {
		return domain.Dataset{}, err
	}
	dataset.Equipment = records

	return dataset, nil
}

// Delete removes a dataset and, via cascade, its records.
func (r *datasetRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	tag, err := r.conn.Pool.Exec(ctx,
		"DELETE FROM datasets WHERE id = $1 AND user_id = $2",
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *datasetRepository) recordsForDataset(ctx context.Context, datasetID uuid.UUID) ([]domain.EquipmentRecord, error) {
	rows, err := r.conn.Pool.Query(ctx,
		`SELECT id, dataset_id, equipment_name, type, flowrate, pressure, temperature
		 FROM equipment
		 WHERE dataset_id = $1
		 ORDER BY equipment_name, id`,
		datasetID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment records: %w", err)
	}
	defer rows.Close()

	records := []domain.EquipmentRecord{}
	for rows.Next() {
		var record domain.EquipmentRecord
		if err := rows.Scan(&record.ID, &record.DatasetID, &record.EquipmentName, &record.Type, &record.Flowrate, &record.Pressure, &record.Temperature); err != nil {
			return nil, fmt.Errorf("failed to scan equipment record: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read equipment records: %w", err)
	}

	return records, nil
}
