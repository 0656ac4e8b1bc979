package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"supplyguard/shared/types"
)

func TestParseResponseJSON(t *testing.T) {
	content := `{
		"risk_level": "high",
		"risk_score": 72,
		"summary": "Port congestion is elevated.",
		"key_findings": ["congestion at Shanghai", "strike ongoing"],
		"recommendations": ["reroute via Ningbo"],
		"affected_areas": ["shipping"],
		"confidence": 88
	}`

	j := ParseResponse(content)
	assert.Equal(t, types.RiskHigh, j.RiskLevel)
	assert.Equal(t, 72.0, j.RiskScore)
	assert.Equal(t, "Port congestion is elevated.", j.Summary)
	assert.Equal(t, 88, j.Confidence)
	assert.Len(t, j.KeyFindings, 2)
}

func TestParseResponseJSONInFences(t *testing.T) {
	content := "```json\n{\"risk_level\": \"critical\", \"risk_score\": 91, \"summary\": \"s\"}\n```"

	j := ParseResponse(content)
	assert.Equal(t, types.RiskCritical, j.RiskLevel)
	assert.Equal(t, 91.0, j.RiskScore)
	// Confidence defaults when the model omits it.
	assert.Equal(t, 75, j.Confidence)
}

func TestParseResponseInvalidLevelNormalized(t *testing.T) {
	j := ParseResponse(`{"risk_level": "extreme", "risk_score": 10, "summary": "s"}`)
	assert.Equal(t, types.RiskMedium, j.RiskLevel)
}

func TestParseResponseTextHeuristics(t *testing.T) {
	content := `The situation presents significant exposure across routes.
We identified congestion at three major ports.
I recommend diversifying carriers immediately.
Overall the outlook is critical for Q3 deliveries.`

	j := ParseResponse(content)
	// The last severity cue wins.
	assert.Equal(t, types.RiskCritical, j.RiskLevel)
	assert.Equal(t, 85.0, j.RiskScore)
	assert.Len(t, j.KeyFindings, 1)
	assert.Len(t, j.Recommendations, 1)
	assert.Equal(t, 75, j.Confidence)
}

func TestParseResponseTextDefaults(t *testing.T) {
	j := ParseResponse("Nothing notable to report.")
	assert.Equal(t, types.RiskMedium, j.RiskLevel)
	assert.Equal(t, 50.0, j.RiskScore)
	assert.Equal(t, "Nothing notable to report.", j.Summary)
}

func TestParseResponseTextCapsLists(t *testing.T) {
	content := ""
	for i := 0; i < 8; i++ {
		content += "You should act on this line.\nWe identified an issue here.\n"
	}

	j := ParseResponse(content)
	assert.Len(t, j.Recommendations, 5)
	assert.Len(t, j.KeyFindings, 5)
}

func TestParseResponseLongTextTruncatesSummary(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdefghij"
	}

	j := ParseResponse(long)
	assert.Len(t, j.Summary, 203)
	assert.Equal(t, "...", j.Summary[200:])
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.ErrorIs(t, err, ErrDisabled)
}
