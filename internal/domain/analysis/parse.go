package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// Certainty closing phrases. Every justification must end with exactly one
// of these, chosen by confidence band.
const (
	PhraseVerySure     = "I am very sure."
	PhraseResearchMore = "Research more."
	PhraseDoubtful     = "Research more, but I don't think so."
)

// Default band cutoffs. These were tuned informally, not calibrated;
// the pipeline config can override them.
const (
	DefaultSureThreshold     = 75
	DefaultResearchThreshold = 45
)

var trailingPunct = regexp.MustCompile(`[.!?]+$`)

// CertaintyPhrase picks the closing phrase for a confidence score.
func CertaintyPhrase(score, sureAt, researchAt int) string {
	switch {
	case score >= sureAt:
		return PhraseVerySure
	case score >= researchAt:
		return PhraseResearchMore
	default:
		return PhraseDoubtful
	}
}

// EnforceCertaintyPhrase guarantees the justification ends with the phrase
// matching the score band. Model text that already closes with any of the
// three phrases is kept as-is; otherwise trailing punctuation is stripped
// and the correct phrase appended.
func EnforceCertaintyPhrase(text string, score, sureAt, researchAt int) string {
	t := strings.TrimSpace(text)
	for _, p := range []string{PhraseVerySure, PhraseResearchMore, PhraseDoubtful} {
		if strings.HasSuffix(t, p) {
			return t
		}
	}
	t = trailingPunct.ReplaceAllString(t, "")
	t = strings.TrimSpace(t)
	phrase := CertaintyPhrase(score, sureAt, researchAt)
	if t == "" {
		return phrase
	}
	return t + " " + phrase
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizePlate canonicalizes an OCR'd plate string. Returns "" when the
// input is junk: too short after stripping, or a textual null sentinel.
func NormalizePlate(raw string) string {
	p := nonAlnum.ReplaceAllString(strings.ToUpper(raw), "")
	if len(p) < 4 || p == "NONE" || p == "NULL" {
		return ""
	}
	return p
}

// ClampScore rounds a model-reported score into the 0–100 range.
func ClampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	s := int(math.Round(v))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// ExtractJSONObject pulls a {...} span out of free-form model text. When the
// output was truncated mid-object (no closing brace), it salvages everything
// from the first brace, closes any open string literal and appends a brace.
// The second return is false only when no opening brace exists at all.
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start == -1 {
		return "", false
	}
	if end := strings.LastIndex(raw, "}"); end > start {
		return raw[start : end+1], true
	}
	salvaged := strings.TrimSpace(raw[start:])
	if !strings.HasSuffix(salvaged, "\"") && countUnescapedQuotes(salvaged)%2 == 1 {
		salvaged += "\""
	}
	salvaged += "}"
	return salvaged, true
}

func countUnescapedQuotes(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '"' && (i == 0 || s[i-1] != '\\') {
			n++
		}
	}
	return n
}

// ParseViolationResult decodes one analyzer response into its typed form.
// Confidence is accepted as any JSON number and clamped; an unknown or
// missing verdict label degrades to INSUFFICIENT_EVIDENCE.
func ParseViolationResult(raw string) (*ViolationResult, error) {
	var out struct {
		Confidence json.Number `json:"confidence_score"`
		Verdict    string      `json:"verdict"`
		Comments   string      `json:"ai_comments"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decoding analyzer response: %w", err)
	}
	res := &ViolationResult{
		Verdict:       Verdict(strings.ToUpper(strings.TrimSpace(out.Verdict))),
		Justification: strings.TrimSpace(out.Comments),
	}
	if f, err := out.Confidence.Float64(); err == nil {
		res.Confidence = ClampScore(f)
	}
	if !res.Verdict.Valid() {
		res.Verdict = VerdictInsufficient
	}
	return res, nil
}
