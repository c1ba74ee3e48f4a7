package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dataset represents one successful upload. Metadata only; the
// equipment rows live in EquipmentRecord. Immutable once created
// except for deletion.
type Dataset struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Filename   string    `json:"filename"`
	UploadedAt time.Time `json:"uploaded_at"`
	RowCount   int       `json:"row_count"`

	// Equipment is populated only by detail lookups.
	Equipment []EquipmentRecord `json:"equipment,omitempty"`
}

// NewDataset creates dataset metadata for a fresh upload.
func NewDataset(ownerID uuid.UUID, filename string, rowCount int) Dataset {
	return Dataset{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Filename:   filename,
		UploadedAt: time.Now().UTC(),
		RowCount:   rowCount,
	}
}

// EquipmentRecord is a single normalized equipment row. A record
// belongs to exactly one dataset and is removed with it. All numeric
// fields and the type are guaranteed non-empty for persisted records.
type EquipmentRecord struct {
	ID            uuid.UUID `json:"id"`
	DatasetID     uuid.UUID `json:"dataset_id"`
	EquipmentName string    `json:"equipment_name"`
	Type          string    `json:"type"`
	Flowrate      float64   `json:"flowrate"`
	Pressure      float64   `json:"pressure"`
	Temperature   float64   `json:"temperature"`
}
