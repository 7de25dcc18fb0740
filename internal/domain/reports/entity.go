package reports

import (
	"time"
)

// ID tipe untuk Report
type ReportID string

// CrimeType enum
type CrimeType string

const (
	CrimeSignalJumping    CrimeType = "Signal Jumping"
	CrimeIllegalParking   CrimeType = "Illegal Parking"
	CrimeNoHelmet         CrimeType = "No Helmet"
	CrimeTripleRiding     CrimeType = "Triple Riding"
	CrimeWrongSideDriving CrimeType = "Wrong Side Driving"
	CrimeOverspeeding     CrimeType = "Overspeeding"
	CrimeDangerousDriving CrimeType = "Dangerous Driving"
	CrimeBlockingRoad     CrimeType = "Blocking Road"
	CrimeOther            CrimeType = "Other"
)

// CrimeTypes lists every accepted violation category.
var CrimeTypes = []CrimeType{
	CrimeSignalJumping,
	CrimeIllegalParking,
	CrimeNoHelmet,
	CrimeTripleRiding,
	CrimeWrongSideDriving,
	CrimeOverspeeding,
	CrimeDangerousDriving,
	CrimeBlockingRoad,
	CrimeOther,
}

// Status enum (report workflow). The AI pipeline owns only the
// Submitted → AI Processed transition; the rest belong to review flows.
type Status string

const (
	StatusSubmitted       Status = "Submitted"
	StatusAIProcessed     Status = "AI Processed"
	StatusAdminAccepted   Status = "Admin Accepted"
	StatusAdminRejected   Status = "Admin Rejected"
	StatusPoliceConfirmed Status = "Police Confirmed"
	StatusOwnerNotified   Status = "Owner Notified"
)

// Aggregate Root: Report
type Report struct {
	ID             ReportID  `json:"report_id"`
	CitizenID      string    `json:"citizen_id,omitempty"`
	ReportedBy     string    `json:"reported_by,omitempty"` // citizen | police
	CrimeType      CrimeType `json:"crime_type"`
	Comments       string    `json:"comments,omitempty"`
	Location       string    `json:"location,omitempty"`
	MediaURLs      []string  `json:"media_urls"`
	Status         Status    `json:"status"`
	SubmissionTime time.Time `json:"submission_time"`
}

// PrimaryMediaURL returns the first evidence URL, or "" when the
// report carries no media.
func (r *Report) PrimaryMediaURL() string {
	if len(r.MediaURLs) == 0 {
		return ""
	}
	return r.MediaURLs[0]
}
