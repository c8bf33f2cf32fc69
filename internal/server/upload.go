package server

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/muridae/tumorboard/internal/auth"
	"github.com/muridae/tumorboard/internal/platform/id"
	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/study"
	"github.com/muridae/tumorboard/internal/telemetry"
)

// maxUploadBytes caps the CSV upload size at 16 MiB.
const maxUploadBytes = 16 << 20

// handleUpload ingests a CSV file as a new immutable dataset version.
// The request must carry a bearer token minted for uploads.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "dataset.ingest")
	defer span.End()

	if len(h.uploadSecret) == 0 {
		http.Error(w, "uploads disabled", http.StatusForbidden)
		return
	}

	token, ok := auth.FromAuthorizationHeader(r.Header.Get("Authorization"))
	if !ok {
		http.Error(w, "missing bearer token", http.StatusUnauthorized)
		return
	}
	subject, err := auth.Verify(h.uploadSecret, token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	measurements, err := study.DecodeCSV(file)
	if err != nil {
		detail := err.Error()
		_ = h.emitter.Emit(ctx, telemetry.SeverityWarn, telemetry.EventDatasetRejected, "", detail)

		var missing *study.MissingColumnError
		switch {
		case errors.As(err, &missing):
			http.Error(w, detail, http.StatusBadRequest)
		case errors.Is(err, study.ErrNoData):
			http.Error(w, detail, http.StatusBadRequest)
		default:
			http.Error(w, "malformed csv", http.StatusBadRequest)
		}
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(header.Filename), filepath.Ext(header.Filename))
	}
	if name == "" {
		name = "upload"
	}

	datasetID, err := id.NewID()
	if err != nil {
		h.serverError(w, err)
		return
	}

	previous, err := h.datasets.LatestDataset(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.serverError(w, err)
		return
	}

	dataset := study.Dataset{
		ID:           datasetID,
		Name:         name,
		Source:       fmt.Sprintf("upload:%s", subject),
		CreatedAt:    time.Now().UTC(),
		Measurements: measurements,
	}
	if err := h.datasets.PutDataset(ctx, dataset); err != nil {
		h.serverError(w, err)
		return
	}

	// Superseded versions stay queryable by id, but their cached analytics
	// are evicted to keep the cache bounded.
	if previous.ID != "" {
		if err := h.analyticsCache.Invalidate(ctx, previous.ID); err != nil {
			log.Printf("invalidate cache for %s: %v", previous.ID, err)
		}
	}
	_ = h.emitter.Emit(ctx, telemetry.SeverityInfo, telemetry.EventDatasetIngested, dataset.ID,
		fmt.Sprintf("%d measurements", len(measurements)))

	writeJSON(w, http.StatusCreated, map[string]string{"id": dataset.ID})
}
