package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apppipeline "github.com/madhus/roadwatch/internal/application/pipeline"
	appreports "github.com/madhus/roadwatch/internal/application/reports"
	domai "github.com/madhus/roadwatch/internal/domain/ai"
	domain "github.com/madhus/roadwatch/internal/domain/reports"
	"github.com/madhus/roadwatch/internal/domain/vehicles"
	"github.com/madhus/roadwatch/internal/infra/storage"
	"github.com/madhus/roadwatch/internal/middleware"
)

type Router struct {
	reportsSvc  *appreports.Service
	pipelineSvc *apppipeline.Service
	registry    vehicles.Registry
	store       *storage.Store
}

func NewRouter(reportsSvc *appreports.Service, pipelineSvc *apppipeline.Service, registry vehicles.Registry, store *storage.Store, checkers map[string]middleware.HealthChecker) http.Handler {
	r := &Router{reportsSvc: reportsSvc, pipelineSvc: pipelineSvc, registry: registry, store: store}
	mux := chi.NewRouter()

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/reports", r.wrap(r.handleSubmitReport))
		rt.Get("/reports", r.wrap(r.handleListReports))
		rt.Get("/reports/{id}", r.wrap(r.handleGetReport))
		rt.Get("/reports/{id}/analysis", r.wrap(r.handleGetAnalysis))
		rt.Get("/reports/{id}/errors", r.wrap(r.handleListErrors))
		rt.Post("/reports/{id}/reanalyze", r.wrap(r.handleReanalyze))
		rt.Get("/vehicles/{plate}", r.wrap(r.handleLookupVehicle))
		rt.Post("/media", r.wrap(r.handleUploadMedia))
		rt.Get("/summary", r.wrap(r.handleSummary))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			if errors.Is(err, domai.ErrQuotaExceeded) {
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// POST /v1/reports
// Saves the report, responds immediately, and runs the AI verification
// pipeline in the background so submission never blocks on it.
func (r *Router) handleSubmitReport(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		CitizenID  string   `json:"citizen_id"`
		ReportedBy string   `json:"reported_by"`
		CrimeType  string   `json:"crime_type"`
		Comments   string   `json:"comments"`
		Location   string   `json:"location"`
		MediaURLs  []string `json:"media_urls"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	for _, u := range body.MediaURLs {
		if err := middleware.ValidateURL(u); err != nil {
			return fmt.Errorf("media url: %w", err)
		}
	}

	rep, err := r.reportsSvc.Submit(req.Context(), appreports.SubmitReportCommand{
		CitizenID:  body.CitizenID,
		ReportedBy: body.ReportedBy,
		CrimeType:  body.CrimeType,
		Comments:   middleware.SanitizeString(body.Comments),
		Location:   middleware.SanitizeString(body.Location),
		MediaURLs:  body.MediaURLs,
	})
	if err != nil {
		return err
	}

	if url := rep.PrimaryMediaURL(); url != "" {
		r.runPipeline(apppipeline.ProcessCommand{
			ReportID:  string(rep.ID),
			ImageURL:  url,
			CrimeType: string(rep.CrimeType),
			Remarks:   rep.Comments,
		})
	}

	resp := map[string]any{
		"status":   "queued",
		"report":   rep,
		"queuedAt": time.Now(),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(resp)
}

// runPipeline fires one verification run in the background.
func (r *Router) runPipeline(cmd apppipeline.ProcessCommand) {
	go func() {
		middleware.IncrementPipelineRuns()
		defer middleware.DecrementPipelineRunning()
		if err := r.pipelineSvc.ProcessUntilDone(cmd); err != nil {
			middleware.IncrementPipelineFailed()
			log.Printf("background pipeline error: report=%s err=%v", cmd.ReportID, err)
		}
	}()
}

// POST /v1/reports/{id}/reanalyze
func (r *Router) handleReanalyze(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return err
	}

	rep, err := r.reportsSvc.Get(req.Context(), domain.ReportID(id))
	if err != nil {
		return err
	}
	url := rep.PrimaryMediaURL()
	if url == "" {
		return fmt.Errorf("no media on this report")
	}

	r.runPipeline(apppipeline.ProcessCommand{
		ReportID:  string(rep.ID),
		ImageURL:  url,
		CrimeType: string(rep.CrimeType),
		Remarks:   rep.Comments,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	return json.NewEncoder(w).Encode(map[string]any{
		"status":   "queued",
		"report":   rep.ID,
		"queuedAt": time.Now(),
	})
}

// GET /v1/reports?page=&page_size=&status=&crime_type=
func (r *Router) handleListReports(w http.ResponseWriter, req *http.Request) error {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	size, _ := strconv.Atoi(req.URL.Query().Get("page_size"))
	size = middleware.ValidateLimit(size)

	filters := map[string]interface{}{}
	if v := req.URL.Query().Get("status"); v != "" {
		filters["status"] = v
	}
	if v := req.URL.Query().Get("crime_type"); v != "" {
		filters["crime_type"] = v
	}
	if v := req.URL.Query().Get("citizen_id"); v != "" {
		filters["citizen_id"] = v
	}

	list, err := r.reportsSvc.Paginate(req.Context(), page, size, filters)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/reports/{id}
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return err
	}

	rep, err := r.reportsSvc.Get(req.Context(), domain.ReportID(id))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rep)
}

// GET /v1/reports/{id}/analysis
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return err
	}

	rec, err := r.pipelineSvc.GetAnalysis(req.Context(), id)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(rec)
}

// GET /v1/reports/{id}/errors?limit=
func (r *Router) handleListErrors(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateReportID(id); err != nil {
		return err
	}
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.pipelineSvc.ListErrors(req.Context(), id, middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

// GET /v1/vehicles/{plate}
func (r *Router) handleLookupVehicle(w http.ResponseWriter, req *http.Request) error {
	plate := chi.URLParam(req, "plate")
	if err := middleware.ValidatePlate(plate); err != nil {
		return err
	}

	v, err := r.registry.Lookup(req.Context(), plate)
	if err != nil {
		return err
	}
	if v == nil {
		http.Error(w, "not found in registry", http.StatusNotFound)
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}

// POST /v1/media: multipart evidence upload, returns the stored URL.
func (r *Router) handleUploadMedia(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(16 << 20); err != nil {
		return fmt.Errorf("parsing upload: %w", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return fmt.Errorf("file field is required: %w", err)
	}
	defer file.Close()

	url, err := r.store.PutEvidence(req.Context(), header.Filename,
		header.Header.Get("Content-Type"), file, header.Size)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	return json.NewEncoder(w).Encode(map[string]string{"url": url})
}

// GET /v1/summary?days=7
func (r *Router) handleSummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))

	summary, err := r.reportsSvc.Summary(req.Context(), middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(summary)
}
