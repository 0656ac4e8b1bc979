package agents

import (
	"context"
	"strings"

	"supplyguard/llm"
	"supplyguard/shared/logger"
	"supplyguard/shared/types"
)

// runJudgment calls the AI layer and degrades to nil on any failure so
// the caller falls back to the heuristic result.
func runJudgment(ctx context.Context, ai llm.Client, log *logger.Logger, analysisType, query string, contextData map[string]any) *llm.Judgment {
	if ai == nil {
		return nil
	}
	j, err := ai.Judge(ctx, analysisType, query, contextData)
	if err != nil {
		log.Warn("", "ai judgment failed, using heuristic analysis", map[string]any{
			"analysis_type": analysisType,
			"error":         err.Error(),
		})
		return nil
	}
	return j
}

// applyJudgment merges an AI judgment into a heuristic result. The AI
// assessment wins on level and score; summaries concatenate AI-first;
// recommendations dedup AI-first and cap at five. A nil judgment marks
// the result as heuristic-only.
func applyJudgment(result *types.AgentResult, j *llm.Judgment) {
	if j == nil {
		result.Details["ai_fallback"] = true
		return
	}

	result.RiskLevel = j.RiskLevel
	result.RiskScore = round2(j.RiskScore)
	result.Summary = strings.TrimSpace(j.Summary + " " + result.Summary)

	merged := make([]string, 0, len(j.Recommendations)+len(result.Recommendations))
	merged = append(merged, j.Recommendations...)
	merged = append(merged, result.Recommendations...)
	result.Recommendations = dedupCap(merged, 5)

	result.Details["ai_insights"] = j.KeyFindings
	result.Details["ai_confidence"] = j.Confidence
}

// dedupCap removes duplicates keeping first occurrences, then caps the
// list at n entries.
func dedupCap(list []string, n int) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
