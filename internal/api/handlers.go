package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chemviz/equipment-api/internal/analytics"
	"github.com/chemviz/equipment-api/internal/auth"
	"github.com/chemviz/equipment-api/internal/domain"
	"github.com/chemviz/equipment-api/internal/ingestion"
	"github.com/chemviz/equipment-api/internal/report"
	"github.com/chemviz/equipment-api/internal/repository"
)

const maxMultipartMemory = 32 << 20

// Handler exposes the dataset API over HTTP. It is a thin shell: all
// semantics live in the ingestion service, the retention store and the
// analytics engine.
type Handler struct {
	ingest   *ingestion.Service
	datasets repository.DatasetRepository
	engine   *analytics.Engine
	reports  *report.Service
	logger   *zap.Logger
}

// NewHandler wires the API handler.
func NewHandler(
	ingest *ingestion.Service,
	datasets repository.DatasetRepository,
	engine *analytics.Engine,
	reports *report.Service,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		ingest:   ingest,
		datasets: datasets,
		engine:   engine,
		reports:  reports,
		logger:   logger,
	}
}

// Routes returns the full route table with user scoping applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/datasets/upload", h.upload)
	mux.HandleFunc("GET /api/datasets", h.list)
	mux.HandleFunc("GET /api/datasets/{id}", h.get)
	mux.HandleFunc("GET /api/datasets/{id}/analytics", h.analytics)
	mux.HandleFunc("GET /api/datasets/{id}/report", h.report)
	mux.HandleFunc("DELETE /api/datasets/{id}", h.delete)
	return UserScopeMiddleware(mux)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	dataset, err := h.ingest.Ingest(r.Context(), userID, header.Filename, payload)
	if err != nil {
		if failure, isValidation := domain.AsValidationFailure(err); isValidation {
			writeJSON(w, http.StatusBadRequest, failure)
			return
		}
		h.logger.Error("ingestion failed", zap.Error(err))
		http.Error(w, "failed to store dataset", http.StatusInternalServerError)
		return
	}

	detail, err := h.datasets.GetByID(r.Context(), userID, dataset.ID)
	if err != nil {
		h.logger.Error("failed to load created dataset", zap.Error(err))
		http.Error(w, "failed to load dataset", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	datasets, err := h.datasets.ListByOwner(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list datasets", zap.Error(err))
		http.Error(w, "failed to list datasets", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, datasets)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	dataset, ok := h.lookupDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	dataset, ok := h.lookupDataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Compute(dataset.Equipment))
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	dataset, ok := h.lookupDataset(w, r)
	if !ok {
		return
	}

	workbook, err := h.reports.Render(dataset, h.engine.Compute(dataset.Equipment))
	if err != nil {
		h.logger.Error("failed to render report", zap.Error(err))
		http.Error(w, "failed to render report", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report_%s_%s.xlsx"`, dataset.Filename, dataset.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(workbook)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid dataset id", http.StatusBadRequest)
		return
	}

	if err := h.datasets.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete dataset", zap.Error(err))
		http.Error(w, "failed to delete dataset", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) lookupDataset(w http.ResponseWriter, r *http.Request) (domain.Dataset, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return domain.Dataset{}, false
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid dataset id", http.StatusBadRequest)
		return domain.Dataset{}, false
	}

	dataset, err := h.datasets.GetByID(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return domain.Dataset{}, false
		}
		h.logger.Error("failed to get dataset", zap.Error(err))
		http.Error(w, "failed to get dataset", http.StatusInternalServerError)
		return domain.Dataset{}, false
	}

	return dataset, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
