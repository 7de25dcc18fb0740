package pipeline

import (
	"context"
	"strings"

	domai "github.com/madhus/roadwatch/internal/domain/ai"
	"github.com/madhus/roadwatch/internal/domain/analysis"
	dommedia "github.com/madhus/roadwatch/internal/domain/media"
	"github.com/madhus/roadwatch/internal/infra/ai/prompt"
)

// analyzeViolation asks the vision model whether the claimed violation is
// supported by the evidence, working down a staged recovery ladder:
//
//  1. JSON-forced request, strict parse.
//  2. Same prompt without JSON mode; extract a {...} span from free text.
//  3. (inside ExtractJSONObject) salvage a truncated object.
//  4. Synthesize a minimal fallback record from the raw excerpt.
//
// It returns an error only when both model calls failed outright; a missing
// violation verdict, unlike a missing plate, is never acceptable, so every
// parseable-or-salvageable response yields a result.
func (s *Service) analyzeViolation(ctx context.Context, img *dommedia.Payload, crimeType, remarks string) (*analysis.ViolationResult, error) {
	p := prompt.ViolationPrompt(crimeType, remarks, img != nil)

	raw, err := s.visionCall(ctx, p, img, true)
	if err == nil {
		if res, perr := analysis.ParseViolationResult(raw); perr == nil {
			return res, nil
		}
	}

	raw2, err2 := s.visionCall(ctx, p, img, false)
	if err2 != nil {
		if err != nil {
			return nil, err
		}
		return nil, err2
	}

	if frag, ok := analysis.ExtractJSONObject(raw2); ok {
		if res, perr := analysis.ParseViolationResult(frag); perr == nil {
			return res, nil
		}
	}

	// Final stage: never leave the verdict empty. The raw excerpt goes into
	// the justification so a reviewer can see what the model said.
	return &analysis.ViolationResult{
		Confidence:    0,
		Verdict:       analysis.VerdictInsufficient,
		Justification: "Analysis yielded partial response: " + excerpt(raw2, 50) + "...",
	}, nil
}

func (s *Service) visionCall(ctx context.Context, p string, img *dommedia.Payload, forceJSON bool) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.Config.CallTimeout())
	defer cancel()
	return s.Vision.Generate(callCtx, domai.VisionRequest{
		Prompt:    p,
		Image:     img,
		ForceJSON: forceJSON,
	})
}

// excerpt trims model output for embedding inside a justification string.
func excerpt(s string, max int) string {
	s = strings.NewReplacer("\"", "", "\n", "", "\r", "").Replace(s)
	if len(s) > max {
		s = s[:max]
	}
	return strings.TrimSpace(s)
}
