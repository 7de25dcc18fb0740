package prompt

import "fmt"

// ViolationPrompt builds the analyst instruction for one report. hasImage
// controls the degraded text-only wording used when the evidence image
// could not be loaded.
func ViolationPrompt(crimeType, remarks string, hasImage bool) string {
	imageLine := "Analyse the attached image."
	if !hasImage {
		imageLine = "No image provided."
	}
	if remarks == "" {
		remarks = "none"
	}
	return fmt.Sprintf(`You are a traffic violation analyst for Delhi Police.
%s

Violation: %s
Remarks: %s

Respond with ONLY a JSON object (no markdown):
{
  "confidence_score": <integer 0-100, probability that a real traffic violation is shown in the image (100 = obvious violation, 0 = no violation at all)>,
  "verdict": "<CONFIRMED_VIOLATION|PROBABLE_VIOLATION|INSUFFICIENT_EVIDENCE|NO_VIOLATION_DETECTED>",
  "ai_comments": "<40-100 words describing what is visible and why. End with 'I am very sure.' if score>=75, 'Research more.' if 45-74, or 'Research more, but I don't think so.' if <45>"
}`, imageLine, crimeType, remarks)
}
