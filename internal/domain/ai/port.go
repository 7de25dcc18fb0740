package ai

import (
	"context"

	"github.com/madhus/roadwatch/internal/domain/media"
)

// VisionRequest is one prompt against the vision-language model, optionally
// carrying inline image bytes.
type VisionRequest struct {
	Prompt    string
	Image     *media.Payload
	ForceJSON bool
}

// VisionClient port: can run vision-language inference.
type VisionClient interface {
	Generate(ctx context.Context, req VisionRequest) (string, error)
}

// SyntheticDetector port: can score the probability (0–100) that an image
// at a fetchable URL is AI-generated.
type SyntheticDetector interface {
	Score(ctx context.Context, imageURL string) (int, error)
}
