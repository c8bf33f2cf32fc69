package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/muridae/tumorboard/internal/report"
	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/study"
)

// handleChartPNG renders the group-mean chart for a dataset as a PNG,
// honoring the same group/mouse filters as the dashboard.
func (h *Handler) handleChartPNG(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.datasets.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			http.Error(w, "dataset not found", http.StatusNotFound)
			return
		}
		h.serverError(w, err)
		return
	}

	q := parseQuery(r.URL.Query(), dataset.Groups())
	filtered := study.Filter(dataset.Measurements, q.Groups, q.Mice)
	series := study.SeriesByGroup(filtered)

	var buf bytes.Buffer
	if err := report.WriteGroupMeanPNG(&buf, dataset.Name, series); err != nil {
		http.Error(w, "not enough data to chart", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", dataset.Name+".png"))
	_, _ = buf.WriteTo(w)
}
