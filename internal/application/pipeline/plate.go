package pipeline

import (
	"context"
	"encoding/json"

	domai "github.com/madhus/roadwatch/internal/domain/ai"
	"github.com/madhus/roadwatch/internal/domain/analysis"
	dommedia "github.com/madhus/roadwatch/internal/domain/media"
	"github.com/madhus/roadwatch/internal/infra/ai/prompt"
)

// detectPlate runs the narrowly-scoped OCR request. Every failure path
// (no image, network, parse, junk output) degrades to "": a missing plate
// is an acceptable outcome, so there is no recovery ladder here.
func (s *Service) detectPlate(ctx context.Context, img *dommedia.Payload) string {
	if img == nil {
		return ""
	}
	callCtx, cancel := context.WithTimeout(ctx, s.Config.CallTimeout())
	defer cancel()

	raw, err := s.Vision.Generate(callCtx, domai.VisionRequest{
		Prompt:    prompt.PlatePrompt(),
		Image:     img,
		ForceJSON: true,
	})
	if err != nil {
		return ""
	}

	var parsed prompt.PlateResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return ""
	}
	return analysis.NormalizePlate(parsed.DetectedPlate)
}
