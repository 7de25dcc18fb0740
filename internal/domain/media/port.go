package media

import "context"

// Loader port: fetches an evidence image and normalizes it into an
// analyzable payload. A nil payload with nil error means "unavailable":
// callers degrade to text-only analysis instead of aborting. Errors are
// reserved for inputs that are invalid outright.
type Loader interface {
	Load(ctx context.Context, uri string) (*Payload, error)
}
