package llm

import (
	"encoding/json"
	"strings"

	"supplyguard/shared/types"
)

// wireJudgment tolerates the loose shapes models actually return:
// risk_score as number or string, lists of mixed types.
type wireJudgment struct {
	RiskLevel       string      `json:"risk_level"`
	RiskScore       json.Number `json:"risk_score"`
	Summary         string      `json:"summary"`
	KeyFindings     []string    `json:"key_findings"`
	Recommendations []string    `json:"recommendations"`
	AffectedAreas   []string    `json:"affected_areas"`
	Confidence      json.Number `json:"confidence"`
}

// ParseResponse turns a model response into a Judgment. It first tries
// strict JSON (with markdown fences stripped), then falls back to
// line-oriented text heuristics.
func ParseResponse(content string) *Judgment {
	if j, ok := parseJSON(content); ok {
		return j
	}
	return parseText(content)
}

func parseJSON(content string) (*Judgment, bool) {
	trimmed := stripFences(content)

	var wire wireJudgment
	if err := json.Unmarshal([]byte(trimmed), &wire); err != nil {
		return nil, false
	}

	j := &Judgment{
		RiskLevel:       types.RiskLevel(strings.ToLower(wire.RiskLevel)),
		Summary:         wire.Summary,
		KeyFindings:     wire.KeyFindings,
		Recommendations: wire.Recommendations,
		AffectedAreas:   wire.AffectedAreas,
		Confidence:      75,
	}
	if score, err := wire.RiskScore.Float64(); err == nil {
		j.RiskScore = score
	}
	if conf, err := wire.Confidence.Int64(); err == nil && conf > 0 {
		j.Confidence = int(conf)
	}
	switch j.RiskLevel {
	case types.RiskLow, types.RiskMedium, types.RiskHigh, types.RiskCritical:
	default:
		j.RiskLevel = types.RiskMedium
	}
	return j, true
}

// stripFences removes a surrounding markdown code fence, if any.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// parseText extracts a structured judgment from free-form model text.
// Severity cues are evaluated per line, so a later line overrides an
// earlier one. Findings and recommendations are capped at five each.
func parseText(content string) *Judgment {
	summary := content
	if len(summary) > 200 {
		summary = summary[:200] + "..."
	}

	j := &Judgment{
		RiskLevel:  types.RiskMedium,
		RiskScore:  50,
		Summary:    summary,
		Confidence: 75,
	}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case containsAny(lower, "critical", "high risk", "severe"):
			j.RiskLevel = types.RiskCritical
			j.RiskScore = 85
		case containsAny(lower, "high", "significant"):
			j.RiskLevel = types.RiskHigh
			j.RiskScore = 70
		case containsAny(lower, "low", "minimal"):
			j.RiskLevel = types.RiskLow
			j.RiskScore = 25
		}

		if containsAny(lower, "recommend", "suggest", "should") {
			j.Recommendations = append(j.Recommendations, line)
		}
		if containsAny(lower, "finding", "identified", "observed") {
			j.KeyFindings = append(j.KeyFindings, line)
		}
	}

	if len(j.Recommendations) > 5 {
		j.Recommendations = j.Recommendations[:5]
	}
	if len(j.KeyFindings) > 5 {
		j.KeyFindings = j.KeyFindings[:5]
	}
	return j
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
