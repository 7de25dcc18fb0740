package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/madhus/roadwatch/internal/application"
	"github.com/madhus/roadwatch/internal/config"
	domai "github.com/madhus/roadwatch/internal/domain/ai"
	"github.com/madhus/roadwatch/internal/domain/analysis"
	dommedia "github.com/madhus/roadwatch/internal/domain/media"
	"github.com/madhus/roadwatch/internal/domain/pipelineerrors"
	"github.com/madhus/roadwatch/internal/domain/reports"
	"github.com/madhus/roadwatch/internal/domain/vehicles"
)

// Service is the verdict compiler: it runs the three analyzers against one
// report's evidence image and persists exactly one analysis record.
// Analyzer failures degrade to documented defaults; only persistence
// failures propagate to the caller.
type Service struct {
	Images    dommedia.Loader
	Vision    domai.VisionClient
	Synthetic domai.SyntheticDetector
	Registry  vehicles.Registry
	Analyses  analysis.Repository
	Reports   reports.Repository
	Errors    pipelineerrors.Repository // optional; best-effort error log
	Clock     application.Clock
	Config    config.PipelineConfig
}

// ProcessCommand identifies one verification run.
type ProcessCommand struct {
	ReportID  string
	ImageURL  string
	CrimeType string
	Remarks   string
}

// ProcessUntilDone runs the pipeline with context.Background(); meant to be
// called from a goroutine after report submission so it survives the
// request context.
func (s *Service) ProcessUntilDone(cmd ProcessCommand) error {
	return s.Process(context.Background(), cmd)
}

// Process loads the image once, settles all three analyzers, compiles the
// verdict, enriches it with a registry lookup and upserts the record.
func (s *Service) Process(ctx context.Context, cmd ProcessCommand) error {
	if cmd.ReportID == "" {
		return fmt.Errorf("report id is required")
	}
	if cmd.ImageURL == "" {
		return fmt.Errorf("no media on report %s", cmd.ReportID)
	}

	img := s.loadImage(ctx, cmd)

	var (
		wg        sync.WaitGroup
		plate     string
		violation *analysis.ViolationResult
		violErr   error
		synth     int
		synthErr  error
	)

	// Settle-all join: each branch is fault-isolated and writes only its
	// own variables, so the in-flight window touches no shared state.
	wg.Add(3)
	go func() {
		defer wg.Done()
		defer s.recoverBranch(cmd.ReportID, "plate")
		plate = s.detectPlate(ctx, img)
	}()
	go func() {
		defer wg.Done()
		defer s.recoverBranch(cmd.ReportID, "violation")
		violation, violErr = s.analyzeViolation(ctx, img, cmd.CrimeType, cmd.Remarks)
	}()
	go func() {
		defer wg.Done()
		defer s.recoverBranch(cmd.ReportID, "synthetic")
		callCtx, cancel := context.WithTimeout(ctx, s.Config.CallTimeout())
		defer cancel()
		synth, synthErr = s.Synthetic.Score(callCtx, cmd.ImageURL)
	}()
	wg.Wait()

	rec := s.compile(cmd.ReportID, plate, violation, violErr, synth, synthErr)

	if rec.DetectedPlate != analysis.PlateReviewRequired {
		rec.RegistryStatus = s.lookupRegistry(ctx, cmd.ReportID, rec.DetectedPlate)
	}

	log.Printf("pipeline done: report=%s plate=%s confidence=%d synthetic=%d",
		cmd.ReportID, rec.DetectedPlate, rec.Confidence, rec.SyntheticScore)

	if err := s.Analyses.Upsert(ctx, rec); err != nil {
		s.logError(cmd.ReportID, "persist", err)
		return fmt.Errorf("saving analysis for %s: %w", cmd.ReportID, err)
	}
	if err := s.Reports.UpdateStatus(ctx, reports.ReportID(cmd.ReportID), reports.StatusAIProcessed); err != nil {
		s.logError(cmd.ReportID, "persist", err)
		return fmt.Errorf("updating report status for %s: %w", cmd.ReportID, err)
	}
	return nil
}

// loadImage fetches the evidence once so all analyzers share one payload.
// A nil result switches the vision analyzers into degraded text-only mode.
func (s *Service) loadImage(ctx context.Context, cmd ProcessCommand) *dommedia.Payload {
	fetchCtx, cancel := context.WithTimeout(ctx, s.Config.FetchTimeout())
	defer cancel()
	img, err := s.Images.Load(fetchCtx, cmd.ImageURL)
	if err != nil {
		s.logError(cmd.ReportID, "load", err)
		return nil
	}
	if img == nil {
		s.logError(cmd.ReportID, "load", fmt.Errorf("image unavailable: %s", cmd.ImageURL))
	}
	return img
}

// compile merges the settled branch results into one record, substituting
// the documented default for every failed branch.
func (s *Service) compile(reportID, plate string, violation *analysis.ViolationResult, violErr error, synth int, synthErr error) *analysis.Record {
	rec := &analysis.Record{
		ReportID:      reportID,
		DetectedPlate: analysis.PlateReviewRequired,
		CreatedAt:     s.now(),
	}
	if plate != "" {
		rec.DetectedPlate = plate
	}
	if synthErr == nil {
		rec.SyntheticScore = synth
	} else {
		s.logError(reportID, "synthetic", synthErr)
	}

	if violErr == nil && violation != nil {
		rec.Confidence = violation.Confidence
		comment := analysis.EnforceCertaintyPhrase(
			violation.Justification, rec.Confidence,
			s.Config.SureThreshold, s.Config.ResearchThreshold)
		rec.Summary = fmt.Sprintf("[%s] %s", violation.Verdict, comment)
		return rec
	}

	// Keep the actual error text so reviewers can see what went wrong.
	s.logError(reportID, "violation", violErr)
	msg := "analyzer returned no parseable output"
	if violErr != nil {
		msg = violErr.Error()
	}
	fallback := analysis.EnforceCertaintyPhrase(
		"AI Error: "+truncate(msg, 200), 0,
		s.Config.SureThreshold, s.Config.ResearchThreshold)
	rec.Summary = fmt.Sprintf("[%s] %s", analysis.VerdictInsufficient, fallback)
	return rec
}

// lookupRegistry enriches a detected plate with registered-owner data.
// Lookup failures degrade to the not-found marker.
func (s *Service) lookupRegistry(ctx context.Context, reportID, plate string) string {
	if s.Registry == nil {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, s.Config.CallTimeout())
	defer cancel()
	v, err := s.Registry.Lookup(callCtx, plate)
	if err != nil {
		s.logError(reportID, "registry", err)
		return analysis.RegistryNotFound
	}
	if v == nil {
		return analysis.RegistryNotFound
	}
	payload, err := json.Marshal(v)
	if err != nil {
		return analysis.RegistryNotFound
	}
	return string(payload)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

// logError records a branch failure, best effort. The pipeline never fails
// because its error log did.
func (s *Service) logError(reportID, stage string, err error) {
	if err == nil {
		return
	}
	log.Printf("pipeline %s error: report=%s err=%v", stage, reportID, err)
	if s.Errors == nil {
		return
	}
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.Errors.Save(saveCtx, &pipelineerrors.PipelineError{
		ReportID:  reportID,
		Stage:     stage,
		Message:   err.Error(),
		CreatedAt: s.now(),
	})
}

func (s *Service) recoverBranch(reportID, stage string) {
	if r := recover(); r != nil {
		s.logError(reportID, stage, fmt.Errorf("panic: %v", r))
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
