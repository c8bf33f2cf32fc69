package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/study"
)

type datasetMetaJSON struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Source           string    `json:"source,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	MeasurementCount int       `json:"measurement_count"`
}

// handleAPIDatasets lists stored dataset versions, newest first.
func (h *Handler) handleAPIDatasets(w http.ResponseWriter, r *http.Request) {
	metas, err := h.datasets.ListDatasets(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}

	out := make([]datasetMetaJSON, 0, len(metas))
	for _, m := range metas {
		out = append(out, datasetMetaJSON{
			ID:               m.ID,
			Name:             m.Name,
			Source:           m.Source,
			CreatedAt:        m.CreatedAt,
			MeasurementCount: m.MeasurementCount,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": out})
}

// handleAPISeries returns chart-ready series for a dataset. The "by"
// parameter selects group means (default) or per-mouse curves within one
// group given as "group".
func (h *Handler) handleAPISeries(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasets.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "dataset not found")
			return
		}
		h.serverError(w, err)
		return
	}

	values := r.URL.Query()
	filtered := study.Filter(dataset.Measurements, splitMulti(values["groups"]), splitMulti(values["mice"]))

	var series []study.Series
	switch by := values.Get("by"); by {
	case "", "group":
		series = study.SeriesByGroup(filtered)
	case "mouse":
		group := values.Get("group")
		if group == "" {
			writeJSONError(w, http.StatusBadRequest, "by=mouse requires a group parameter")
			return
		}
		series = study.SeriesByMouse(filtered, group)
	default:
		writeJSONError(w, http.StatusBadRequest, "by must be group or mouse")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(marshalSeries(series)))
}

// handleAPIAnalytics serves the efficacy evaluation as JSON, using the
// same cache as the dashboard page.
func (h *Handler) handleAPIAnalytics(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasets.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "dataset not found")
			return
		}
		h.serverError(w, err)
		return
	}

	q := parseQuery(r.URL.Query(), dataset.Groups())
	filtered := study.Filter(dataset.Measurements, q.Groups, q.Mice)

	result, err := h.evaluateCached(r.Context(), dataset, q, filtered)
	if err != nil {
		if isExpectedAnalyticsError(err) {
			writeJSONError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.serverError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
