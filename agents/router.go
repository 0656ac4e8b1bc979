package agents

import (
	"strings"

	"supplyguard/shared/types"
)

const (
	keywordWeight = 2
	patternWeight = 3
)

// ClassifyIntent scores the query against every agent's routing rule and
// returns the winning agent with extracted entities. A zero top score
// leaves AgentType empty, which routes to comprehensive analysis. Ties
// break toward the earliest agent in types.AgentPriority.
func (rb *Rulebook) ClassifyIntent(query string) *types.Intent {
	lower := strings.ToLower(query)

	scores := make(map[types.AgentType]int, len(rb.Routing))
	for agentType, rule := range rb.Routing {
		score := 0
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				score += keywordWeight
			}
		}
		for _, re := range rule.compiled {
			if re.MatchString(lower) {
				score += patternWeight
			}
		}
		scores[agentType] = score
	}

	var best types.AgentType
	bestScore := 0
	for _, agentType := range types.AgentPriority {
		if scores[agentType] > bestScore {
			best = agentType
			bestScore = scores[agentType]
		}
	}

	return &types.Intent{
		AgentType:  best,
		Confidence: bestScore,
		Entities:   rb.ExtractEntities(query),
		AllScores:  scores,
	}
}
