package analysis

import "time"

// Verdict is one of the four categorical labels the analyzer may produce.
type Verdict string

const (
	VerdictConfirmed    Verdict = "CONFIRMED_VIOLATION"
	VerdictProbable     Verdict = "PROBABLE_VIOLATION"
	VerdictInsufficient Verdict = "INSUFFICIENT_EVIDENCE"
	VerdictNoViolation  Verdict = "NO_VIOLATION_DETECTED"
)

// Valid reports whether v is one of the four known labels.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictConfirmed, VerdictProbable, VerdictInsufficient, VerdictNoViolation:
		return true
	}
	return false
}

// PlateReviewRequired is stored when no plate could be read from the evidence.
const PlateReviewRequired = "REVIEW REQUIRED"

// RegistryNotFound is stored when the detected plate has no registry match.
const RegistryNotFound = "not found in registry"

// Record is the persisted AI verdict for one report. Exactly one record
// exists per report; re-analysis overwrites it.
type Record struct {
	ReportID       string    `json:"report_id"`
	Summary        string    `json:"ai_summary"` // "[VERDICT] <justification>"
	Confidence     int       `json:"confidence_score"`
	DetectedPlate  string    `json:"detected_vehicle_number"`
	SyntheticScore int       `json:"ai_generated_score"`
	RegistryStatus string    `json:"registry_status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ViolationResult is the typed output of the violation analyzer, produced
// at the parse boundary. Raw model JSON never travels deeper than this.
type ViolationResult struct {
	Confidence    int     `json:"confidence_score"`
	Verdict       Verdict `json:"verdict"`
	Justification string  `json:"ai_comments"`
}
