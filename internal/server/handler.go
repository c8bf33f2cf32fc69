package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"

	"github.com/muridae/tumorboard/internal/analysis"
	"github.com/muridae/tumorboard/internal/cache"
	"github.com/muridae/tumorboard/internal/server/htmx"
	"github.com/muridae/tumorboard/internal/server/i18n"
	"github.com/muridae/tumorboard/internal/server/templates"
	"github.com/muridae/tumorboard/internal/storage"
	"github.com/muridae/tumorboard/internal/study"
	"github.com/muridae/tumorboard/internal/telemetry"
)

const langCookieName = "tumorboard_lang"

// Handler serves the dashboard pages, the JSON API, ingest, and export.
type Handler struct {
	datasets       storage.DatasetStore
	analyticsCache *cache.Cache
	emitter        *telemetry.Emitter
	uploadSecret   []byte
	tracer         trace.Tracer
}

// HandlerConfig wires the handler dependencies. An empty UploadSecret
// disables the upload endpoint.
type HandlerConfig struct {
	Datasets       storage.DatasetStore
	AnalyticsCache *cache.Cache
	Emitter        *telemetry.Emitter
	UploadSecret   []byte
}

// NewHandler builds the HTTP handler for the dashboard server.
func NewHandler(config HandlerConfig) (http.Handler, error) {
	if config.Datasets == nil {
		return nil, errors.New("dataset store is required")
	}

	h := &Handler{
		datasets:       config.Datasets,
		analyticsCache: config.AnalyticsCache,
		emitter:        config.Emitter,
		uploadSecret:   config.UploadSecret,
		tracer:         otel.Tracer("tumorboard/server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleLatestDashboard)
	mux.HandleFunc("GET /datasets", h.handleDatasetList)
	mux.HandleFunc("POST /datasets", h.handleUpload)
	mux.HandleFunc("GET /datasets/{id}", h.handleDashboard)
	mux.HandleFunc("GET /datasets/{id}/chart.png", h.handleChartPNG)
	mux.HandleFunc("GET /api/datasets", h.handleAPIDatasets)
	mux.HandleFunc("GET /api/datasets/{id}/series", h.handleAPISeries)
	mux.HandleFunc("GET /api/datasets/{id}/analytics", h.handleAPIAnalytics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux, nil
}

// query holds the parsed dashboard/analytics request parameters.
type query struct {
	Groups    []string
	Mice      []string
	Control   string
	DrugA     string
	DrugB     string
	Threshold float64
	Boot      int
}

// parseQuery reads the shared parameters and fills arm defaults the way the
// dashboard controls do: Vehicle (when present) is the default control, and
// the first two non-control groups default the single-agent arms.
func parseQuery(values url.Values, datasetGroups []string) query {
	q := query{
		Groups:    splitMulti(values["groups"]),
		Mice:      splitMulti(values["mice"]),
		Control:   strings.TrimSpace(values.Get("control")),
		DrugA:     strings.TrimSpace(values.Get("drug_a")),
		DrugB:     strings.TrimSpace(values.Get("drug_b")),
		Threshold: analysis.DefaultThreshold,
		Boot:      analysis.DefaultBootstrapN,
	}

	if raw := strings.TrimSpace(values.Get("threshold")); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			q.Threshold = parsed
		}
	}
	if raw := strings.TrimSpace(values.Get("boot")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			q.Boot = parsed
		}
	}

	if q.Control == "" || !contains(datasetGroups, q.Control) {
		if contains(datasetGroups, "Vehicle") {
			q.Control = "Vehicle"
		} else if len(datasetGroups) > 0 {
			q.Control = datasetGroups[0]
		}
	}

	var candidates []string
	for _, g := range datasetGroups {
		if g != q.Control {
			candidates = append(candidates, g)
		}
	}
	if len(candidates) == 0 {
		candidates = datasetGroups
	}
	if q.DrugA == "" || !contains(datasetGroups, q.DrugA) {
		if len(candidates) > 0 {
			q.DrugA = candidates[0]
		}
	}
	if q.DrugB == "" || !contains(datasetGroups, q.DrugB) {
		if len(candidates) > 1 {
			q.DrugB = candidates[1]
		} else if len(candidates) > 0 {
			q.DrugB = candidates[0]
		}
	}
	return q
}

func (q query) params() analysis.Params {
	return analysis.Params{
		Control:    q.Control,
		DrugA:      q.DrugA,
		DrugB:      q.DrugB,
		Threshold:  q.Threshold,
		BootstrapN: q.Boot,
	}
}

// cacheParams canonicalizes the query for cache keying.
func (q query) cacheParams() map[string]string {
	groups := append([]string(nil), q.Groups...)
	sort.Strings(groups)
	mice := append([]string(nil), q.Mice...)
	sort.Strings(mice)
	return map[string]string{
		"groups":    strings.Join(groups, ","),
		"mice":      strings.Join(mice, ","),
		"control":   q.Control,
		"drug_a":    q.DrugA,
		"drug_b":    q.DrugB,
		"threshold": strconv.FormatFloat(q.Threshold, 'g', -1, 64),
		"boot":      strconv.Itoa(q.Boot),
	}
}

func (h *Handler) handleLatestDashboard(w http.ResponseWriter, r *http.Request) {
	lang := h.resolveLanguage(w, r)
	copy := i18n.Dashboard(lang)

	dataset, err := h.datasets.LatestDataset(r.Context())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			htmx.RenderPage(w, r, templates.NoticePage(copy, langCode(lang), copy.NoData))
			return
		}
		h.serverError(w, err)
		return
	}
	h.renderDashboard(w, r, dataset, lang)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	lang := h.resolveLanguage(w, r)
	copy := i18n.Dashboard(lang)

	dataset, err := h.datasets.GetDataset(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			htmx.RenderPage(w, r, templates.NoticePage(copy, langCode(lang), copy.ErrNotFound))
			return
		}
		h.serverError(w, err)
		return
	}
	h.renderDashboard(w, r, dataset, lang)
}

func (h *Handler) renderDashboard(w http.ResponseWriter, r *http.Request, dataset study.Dataset, lang language.Tag) {
	copy := i18n.Dashboard(lang)
	datasetGroups := dataset.Groups()
	q := parseQuery(r.URL.Query(), datasetGroups)
	filtered := study.Filter(dataset.Measurements, q.Groups, q.Mice)

	view := templates.DashboardView{
		Copy:           copy,
		Lang:           langCode(lang),
		DatasetID:      dataset.ID,
		DatasetName:    dataset.Name,
		Groups:         datasetGroups,
		Mice:           dataset.MouseIDs(),
		SelectedGroups: q.Groups,
		SelectedMice:   q.Mice,
		Control:        q.Control,
		DrugA:          q.DrugA,
		DrugB:          q.DrugB,
		Threshold:      q.Threshold,
		BootstrapN:     q.Boot,
	}

	if len(filtered) == 0 {
		view.Notice = copy.NoData
		view.GroupChartJSON = emptySeriesJSON
		htmx.RenderPage(w, r, templates.DashboardPage(view))
		return
	}

	view.GroupChartJSON = marshalSeries(study.SeriesByGroup(filtered))
	filteredGroups := (study.Dataset{Measurements: filtered}).Groups()
	for i, group := range filteredGroups {
		view.MouseCharts = append(view.MouseCharts, templates.MouseChart{
			Group:    group,
			DomID:    fmt.Sprintf("chart-mouse-%d", i),
			DataJSON: marshalSeries(study.SeriesByMouse(filtered, group)),
		})
	}

	result, err := h.evaluateCached(r.Context(), dataset, q, filtered)
	if err != nil {
		view.Notice = h.analyticsNotice(copy, err)
		if view.Notice == "" {
			h.serverError(w, err)
			return
		}
	} else {
		view.Analytics = result
		view.EndpointSummary = i18n.EndpointSummaryText(lang, result.EvaluationDay, result.Threshold, result.Control)
	}

	htmx.RenderPage(w, r, templates.DashboardPage(view))
}

func (h *Handler) handleDatasetList(w http.ResponseWriter, r *http.Request) {
	lang := h.resolveLanguage(w, r)
	copy := i18n.Dashboard(lang)

	metas, err := h.datasets.ListDatasets(r.Context())
	if err != nil {
		h.serverError(w, err)
		return
	}
	htmx.RenderPage(w, r, templates.DatasetsPage(copy, langCode(lang), metas))
}

// evaluateCached returns the analytics result for the dataset and query,
// computing and caching it on miss. The bootstrap seed derives from the
// cache key, so a recomputed entry matches the cached one.
func (h *Handler) evaluateCached(ctx context.Context, dataset study.Dataset, q query, filtered []study.Measurement) (*analysis.Result, error) {
	ctx, span := h.tracer.Start(ctx, "analytics.evaluate",
		trace.WithAttributes(attribute.String("dataset.id", dataset.ID)))
	defer span.End()

	key := cache.Key(dataset.ID, "analytics", q.cacheParams())

	if payload, found, err := h.analyticsCache.Get(ctx, key); err == nil && found {
		var cached analysis.Result
		if err := json.Unmarshal(payload, &cached); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return &cached, nil
		}
	} else if err != nil {
		log.Printf("analytics cache get: %v", err)
	}

	result, err := analysis.Evaluate(filtered, q.params(), rand.NewSource(seedFromKey(key)))
	if err != nil {
		_ = h.emitter.Emit(ctx, telemetry.SeverityWarn, telemetry.EventAnalyticsFailed, dataset.ID, err.Error())
		return nil, err
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal analytics: %w", err)
	}
	if err := h.analyticsCache.Put(ctx, dataset.ID, key, payload); err != nil {
		log.Printf("analytics cache put: %v", err)
	}
	_ = h.emitter.Emit(ctx, telemetry.SeverityInfo, telemetry.EventAnalyticsServed, dataset.ID, "")
	return &result, nil
}

// analyticsNotice maps expected analysis failures to localized messages.
// Unexpected errors return "" and are treated as server errors.
func (h *Handler) analyticsNotice(copy i18n.Copy, err error) string {
	switch {
	case errors.Is(err, analysis.ErrNoEndpoint):
		return copy.NoEndpoint
	case errors.Is(err, analysis.ErrControlMissing):
		return copy.ErrControlMissing
	case errors.Is(err, analysis.ErrControlMean):
		return copy.ErrControlMean
	}
	return ""
}

// isExpectedAnalyticsError reports whether the evaluation failed for a
// data-shaped reason rather than a server fault.
func isExpectedAnalyticsError(err error) bool {
	return errors.Is(err, analysis.ErrNoEndpoint) ||
		errors.Is(err, analysis.ErrControlMissing) ||
		errors.Is(err, analysis.ErrControlMean)
}

func (h *Handler) resolveLanguage(w http.ResponseWriter, r *http.Request) language.Tag {
	if raw := r.URL.Query().Get("lang"); raw != "" {
		tag := i18n.ParseLanguage(raw)
		http.SetCookie(w, &http.Cookie{
			Name:     langCookieName,
			Value:    langCode(tag),
			Path:     "/",
			HttpOnly: true,
		})
		return tag
	}
	if cookie, err := r.Cookie(langCookieName); err == nil {
		return i18n.ParseLanguage(cookie.Value)
	}
	return language.English
}

func (h *Handler) serverError(w http.ResponseWriter, err error) {
	log.Printf("dashboard error: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func langCode(tag language.Tag) string {
	if tag == language.Japanese {
		return "ja"
	}
	return "en"
}

const emptySeriesJSON = `{"series":[]}`

type seriesPayload struct {
	Series []seriesJSON `json:"series"`
}

type seriesJSON struct {
	Label  string      `json:"label"`
	Points []pointJSON `json:"points"`
}

type pointJSON struct {
	Day    float64 `json:"day"`
	Volume float64 `json:"volume"`
}

func marshalSeries(series []study.Series) string {
	payload := seriesPayload{Series: make([]seriesJSON, 0, len(series))}
	for _, s := range series {
		points := make([]pointJSON, 0, len(s.Points))
		for _, p := range s.Points {
			points = append(points, pointJSON{Day: p.Day, Volume: p.Volume})
		}
		payload.Series = append(payload.Series, seriesJSON{Label: s.Label, Points: points})
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return emptySeriesJSON
	}
	return string(out)
}

// splitMulti flattens repeated params and comma-separated values.
func splitMulti(values []string) []string {
	var out []string
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func seedFromKey(key string) int64 {
	hash := fnv.New64a()
	_, _ = hash.Write([]byte(key))
	return int64(hash.Sum64())
}
