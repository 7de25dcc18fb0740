package pipeline_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madhus/roadwatch/internal/application/pipeline"
	"github.com/madhus/roadwatch/internal/config"
	domai "github.com/madhus/roadwatch/internal/domain/ai"
	"github.com/madhus/roadwatch/internal/domain/analysis"
	dommedia "github.com/madhus/roadwatch/internal/domain/media"
	"github.com/madhus/roadwatch/internal/domain/pipelineerrors"
	"github.com/madhus/roadwatch/internal/domain/reports"
	"github.com/madhus/roadwatch/internal/domain/vehicles"
)

// ---- port fakes ----

type fakeLoader struct {
	payload *dommedia.Payload
	err     error
}

func (f *fakeLoader) Load(ctx context.Context, uri string) (*dommedia.Payload, error) {
	return f.payload, f.err
}

type fakeVision struct {
	mu      sync.Mutex
	calls   []domai.VisionRequest
	handler func(req domai.VisionRequest) (string, error)
}

func (f *fakeVision) Generate(ctx context.Context, req domai.VisionRequest) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	return f.handler(req)
}

func (f *fakeVision) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeSynthetic struct {
	score int
	err   error
}

func (f *fakeSynthetic) Score(ctx context.Context, imageURL string) (int, error) {
	return f.score, f.err
}

type fakeRegistry struct {
	mu      sync.Mutex
	vehicle *vehicles.Vehicle
	err     error
	lookups []string
}

func (f *fakeRegistry) Lookup(ctx context.Context, plate string) (*vehicles.Vehicle, error) {
	f.mu.Lock()
	f.lookups = append(f.lookups, plate)
	f.mu.Unlock()
	return f.vehicle, f.err
}

type fakeAnalysisRepo struct {
	mu      sync.Mutex
	records map[string]*analysis.Record
	upserts int
	err     error
}

func newFakeAnalysisRepo() *fakeAnalysisRepo {
	return &fakeAnalysisRepo{records: map[string]*analysis.Record{}}
}

func (f *fakeAnalysisRepo) Upsert(ctx context.Context, rec *analysis.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.upserts++
	f.records[rec.ReportID] = rec
	return nil
}

func (f *fakeAnalysisRepo) Get(ctx context.Context, reportID string) (*analysis.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.records[reportID], nil
}

func (f *fakeAnalysisRepo) Paginate(ctx context.Context, page, pageSize int) ([]*analysis.Record, error) {
	return nil, nil
}

type fakeReportRepo struct {
	mu       sync.Mutex
	statuses map[reports.ReportID]reports.Status
	err      error
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{statuses: map[reports.ReportID]reports.Status{}}
}

func (f *fakeReportRepo) Save(ctx context.Context, r *reports.Report) error { return nil }
func (f *fakeReportRepo) Get(ctx context.Context, id reports.ReportID) (*reports.Report, error) {
	return nil, nil
}
func (f *fakeReportRepo) Latest(ctx context.Context, limit int) ([]*reports.Report, error) {
	return nil, nil
}
func (f *fakeReportRepo) Paginate(ctx context.Context, page, pageSize int, filters map[string]interface{}) (reports.PaginatedResult, error) {
	return reports.PaginatedResult{}, nil
}
func (f *fakeReportRepo) Summary(ctx context.Context, sinceDays int) (map[string]int, error) {
	return nil, nil
}

func (f *fakeReportRepo) UpdateStatus(ctx context.Context, id reports.ReportID, status reports.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statuses[id] = status
	return nil
}

type fakeErrorRepo struct {
	mu     sync.Mutex
	stages []string
}

func (f *fakeErrorRepo) Save(ctx context.Context, e *pipelineerrors.PipelineError) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stages = append(f.stages, e.Stage)
	return nil
}

func (f *fakeErrorRepo) ListByReport(ctx context.Context, reportID string, limit int) ([]*pipelineerrors.PipelineError, error) {
	return nil, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// ---- helpers ----

func testConfig() config.PipelineConfig {
	var cfg config.PipelineConfig
	cfg.ApplyDefaults()
	return cfg
}

func isPlatePrompt(req domai.VisionRequest) bool {
	return strings.Contains(req.Prompt, "number plate")
}

func newService(loader *fakeLoader, vision *fakeVision, synth *fakeSynthetic, reg *fakeRegistry) (*pipeline.Service, *fakeAnalysisRepo, *fakeReportRepo, *fakeErrorRepo) {
	analyses := newFakeAnalysisRepo()
	reportsRepo := newFakeReportRepo()
	errRepo := &fakeErrorRepo{}
	svc := &pipeline.Service{
		Images:    loader,
		Vision:    vision,
		Synthetic: synth,
		Registry:  reg,
		Analyses:  analyses,
		Reports:   reportsRepo,
		Errors:    errRepo,
		Clock:     fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		Config:    testConfig(),
	}
	return svc, analyses, reportsRepo, errRepo
}

var testImage = &dommedia.Payload{Bytes: []byte("jpeg-bytes"), MIME: "image/jpeg"}

// ---- tests ----

func TestProcessCompilesFullVerdict(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return `{"detected_plate": "dl 01 ab-1234"}`, nil
		}
		return `{"confidence_score": 82, "verdict": "CONFIRMED_VIOLATION", "ai_comments": "A scooter crosses the junction against a red signal. I am very sure."}`, nil
	}}
	reg := &fakeRegistry{vehicle: &vehicles.Vehicle{Plate: "DL01AB1234", OwnerName: "R. Sharma"}}
	svc, analyses, reportsRepo, _ := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{score: 12}, reg)

	err := svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-1",
		ImageURL:  "https://cdn.example.com/ev1.jpg",
		CrimeType: "Signal Jumping",
		Remarks:   "jumped the light at ITO",
	})
	require.NoError(t, err)

	rec := analyses.records["RPT-1"]
	require.NotNil(t, rec)
	assert.Equal(t, 82, rec.Confidence)
	assert.Equal(t, "DL01AB1234", rec.DetectedPlate)
	assert.Equal(t, 12, rec.SyntheticScore)
	assert.True(t, strings.HasPrefix(rec.Summary, "[CONFIRMED_VIOLATION] "))
	assert.True(t, strings.HasSuffix(rec.Summary, analysis.PhraseVerySure))
	assert.Contains(t, rec.RegistryStatus, "R. Sharma")
	assert.Equal(t, reports.StatusAIProcessed, reportsRepo.statuses["RPT-1"])
	assert.Equal(t, []string{"DL01AB1234"}, reg.lookups)
}

func TestProcessAnalyzerFailureStillPersists(t *testing.T) {
	timeout := errors.New("context deadline exceeded")
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return `{"detected_plate": "NONE"}`, nil
		}
		return "", timeout
	}}
	reg := &fakeRegistry{}
	svc, analyses, reportsRepo, errRepo := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{err: errors.New("boom")}, reg)

	err := svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-2",
		ImageURL:  "https://cdn.example.com/ev2.jpg",
		CrimeType: "No Helmet",
	})
	require.NoError(t, err, "analyzer failures must not surface")

	rec := analyses.records["RPT-2"]
	require.NotNil(t, rec)
	assert.Equal(t, 0, rec.Confidence)
	assert.Equal(t, 0, rec.SyntheticScore)
	assert.Equal(t, analysis.PlateReviewRequired, rec.DetectedPlate)
	assert.True(t, strings.HasPrefix(rec.Summary, "[INSUFFICIENT_EVIDENCE] "))
	assert.Contains(t, rec.Summary, "AI Error")
	assert.True(t, strings.HasSuffix(rec.Summary, analysis.PhraseDoubtful))
	assert.Equal(t, reports.StatusAIProcessed, reportsRepo.statuses["RPT-2"])

	// sentinel plate must not hit the registry
	assert.Empty(t, reg.lookups)
	assert.Contains(t, errRepo.stages, "violation")
	assert.Contains(t, errRepo.stages, "synthetic")
}

func TestProcessImageUnavailableDegradesToTextOnly(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		require.Nil(t, req.Image)
		require.False(t, isPlatePrompt(req), "plate detection must be skipped without an image")
		return `{"confidence_score": 20, "verdict": "INSUFFICIENT_EVIDENCE", "ai_comments": "No image was supplied so the claim cannot be verified visually."}`, nil
	}}
	svc, analyses, _, _ := newService(&fakeLoader{}, vision, &fakeSynthetic{}, &fakeRegistry{})

	err := svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-3",
		ImageURL:  "https://cdn.example.com/gone.jpg",
		CrimeType: "Overspeeding",
	})
	require.NoError(t, err)

	rec := analyses.records["RPT-3"]
	require.NotNil(t, rec)
	assert.Equal(t, analysis.PlateReviewRequired, rec.DetectedPlate)
	assert.Equal(t, 0, rec.SyntheticScore)
	assert.Equal(t, 20, rec.Confidence)
	assert.True(t, strings.HasSuffix(rec.Summary, analysis.PhraseDoubtful))
	assert.Equal(t, 1, vision.callCount(), "only the violation analyzer should call the model")
}

func TestProcessIsIdempotentPerReport(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return `{"detected_plate": null}`, nil
		}
		return `{"confidence_score": 55, "verdict": "PROBABLE_VIOLATION", "ai_comments": "Partially visible. Research more."}`, nil
	}}
	svc, analyses, _, _ := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{score: 3}, &fakeRegistry{})

	cmd := pipeline.ProcessCommand{
		ReportID:  "RPT-4",
		ImageURL:  "https://cdn.example.com/ev4.jpg",
		CrimeType: "Illegal Parking",
	}
	require.NoError(t, svc.Process(context.Background(), cmd))
	require.NoError(t, svc.Process(context.Background(), cmd))

	assert.Len(t, analyses.records, 1, "re-analysis must overwrite, not duplicate")
	assert.Equal(t, 2, analyses.upserts)
}

func TestProcessSalvagesTruncatedModelOutput(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return "", errors.New("unavailable")
		}
		if req.ForceJSON {
			return "no json here", nil
		}
		return `Here is my assessment: {"confidence_score": 40, "verdict":"NO_VIOLATION_DETECTED", "ai_comments":"The frame shows an empty junc`, nil
	}}
	svc, analyses, _, _ := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{}, &fakeRegistry{})

	require.NoError(t, svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-5",
		ImageURL:  "https://cdn.example.com/ev5.jpg",
		CrimeType: "Signal Jumping",
	}))

	rec := analyses.records["RPT-5"]
	require.NotNil(t, rec)
	assert.Equal(t, 40, rec.Confidence)
	assert.True(t, strings.HasPrefix(rec.Summary, "[NO_VIOLATION_DETECTED] "))
	assert.True(t, strings.HasSuffix(rec.Summary, analysis.PhraseDoubtful))
}

func TestProcessSynthesizedFallbackWhenNothingParses(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return `{"detected_plate": null}`, nil
		}
		return "The model refuses to answer in the requested format entirely", nil
	}}
	svc, analyses, _, _ := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{}, &fakeRegistry{})

	require.NoError(t, svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-6",
		ImageURL:  "https://cdn.example.com/ev6.jpg",
		CrimeType: "Other",
	}))

	rec := analyses.records["RPT-6"]
	require.NotNil(t, rec)
	assert.Equal(t, 0, rec.Confidence)
	assert.True(t, strings.HasPrefix(rec.Summary, "[INSUFFICIENT_EVIDENCE] "))
	assert.Contains(t, rec.Summary, "partial response")
	assert.True(t, strings.HasSuffix(rec.Summary, analysis.PhraseDoubtful))
}

func TestProcessRegistryMissStoresMarker(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return `{"detected_plate": "HR26DQ5588"}`, nil
		}
		return `{"confidence_score": 90, "verdict": "CONFIRMED_VIOLATION", "ai_comments": "Clear evidence. I am very sure."}`, nil
	}}
	svc, analyses, _, _ := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{}, &fakeRegistry{})

	require.NoError(t, svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-7",
		ImageURL:  "https://cdn.example.com/ev7.jpg",
		CrimeType: "Dangerous Driving",
	}))

	rec := analyses.records["RPT-7"]
	require.NotNil(t, rec)
	assert.Equal(t, "HR26DQ5588", rec.DetectedPlate)
	assert.Equal(t, analysis.RegistryNotFound, rec.RegistryStatus)
}

func TestProcessPersistenceFailurePropagates(t *testing.T) {
	vision := &fakeVision{handler: func(req domai.VisionRequest) (string, error) {
		if isPlatePrompt(req) {
			return `{"detected_plate": null}`, nil
		}
		return `{"confidence_score": 10, "verdict": "NO_VIOLATION_DETECTED", "ai_comments": "Nothing here."}`, nil
	}}
	svc, analyses, _, _ := newService(&fakeLoader{payload: testImage}, vision, &fakeSynthetic{}, &fakeRegistry{})
	analyses.err = errors.New("db is down")

	err := svc.Process(context.Background(), pipeline.ProcessCommand{
		ReportID:  "RPT-8",
		ImageURL:  "https://cdn.example.com/ev8.jpg",
		CrimeType: "Other",
	})
	require.Error(t, err, "losing a computed verdict must be visible to the invoker")
	assert.Contains(t, err.Error(), "db is down")
}

func TestProcessRequiresMedia(t *testing.T) {
	svc, _, _, _ := newService(&fakeLoader{}, &fakeVision{handler: func(domai.VisionRequest) (string, error) { return "", nil }}, &fakeSynthetic{}, &fakeRegistry{})
	err := svc.Process(context.Background(), pipeline.ProcessCommand{ReportID: "RPT-9"})
	assert.Error(t, err)
}
