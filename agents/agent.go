package agents

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"supplyguard/shared/types"
)

// Agent is one domain risk analyzer.
type Agent interface {
	Name() string
	Description() string
	Analyze(ctx context.Context, req Request) (*types.AgentResult, error)
}

// Request carries a routed query into an agent. The country fields are
// populated by the orchestrator from extracted entities when the query
// names enough countries for the target domain; an agent that receives
// them runs its scoped analysis instead of the fleet-wide one.
type Request struct {
	Query   string
	Intent  *types.Intent
	Context map[string]any

	TargetCountries    []string
	OriginCountry      string
	DestinationCountry string
	Country1           string
	Country2           string
}

// newResult assembles an AgentResult with the shared envelope: rounded
// score, bucketed level, and timestamp.
func newResult(analysisType, agentName string, score float64, summary string, details map[string]any, recommendations []string) *types.AgentResult {
	score = round2(score)
	return &types.AgentResult{
		AnalysisType:    analysisType,
		AgentName:       agentName,
		RiskLevel:       types.RiskLevelFromScore(score),
		RiskScore:       score,
		Summary:         summary,
		Details:         details,
		Recommendations: recommendations,
		Timestamp:       time.Now().UTC(),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func clamp100(f float64) float64 {
	return math.Min(100, f)
}

// eventText is the lowercased searchable text of one event.
func eventText(e types.NewsEvent) string {
	return strings.ToLower(e.Title + " " + e.Content)
}

// keywordFrequency counts risk keywords that also belong to the agent's
// domain vocabulary across the given events.
func keywordFrequency(rb *Rulebook, events []types.NewsEvent, domainVocab []string) map[string]int {
	freq := make(map[string]int)
	for _, e := range events {
		text := eventText(e)
		for _, kw := range rb.RiskKeywords {
			if strings.Contains(text, kw) && containsString(domainVocab, kw) {
				freq[kw]++
			}
		}
	}
	return freq
}

func countHighImpact(events []types.NewsEvent) int {
	n := 0
	for _, e := range events {
		if e.ImpactLevel == types.ImpactHigh {
			n++
		}
	}
	return n
}

func countRecent(events []types.NewsEvent, now time.Time, days int) int {
	n := 0
	for _, e := range events {
		if withinDays(e.PublishedDate, now, days) {
			n++
		}
	}
	return n
}

func withinDays(t, now time.Time, days int) bool {
	return int(now.Sub(t).Hours()/24) <= days
}

// scoreEntry is one ranked name/score pair.
type scoreEntry struct {
	name  string
	score float64
}

// rankScores orders entries by score descending. Names break ties so the
// output is stable.
func rankScores(scores map[string]float64) []scoreEntry {
	entries := make([]scoreEntry, 0, len(scores))
	for name, score := range scores {
		entries = append(entries, scoreEntry{name, score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score == entries[j].score {
			return entries[i].name < entries[j].name
		}
		return entries[i].score > entries[j].score
	})
	return entries
}

// sortedKeys returns map keys in ascending order for stable details output.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func capList(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}

func latestEventDate(events []types.NewsEvent) any {
	if len(events) == 0 {
		return nil
	}
	return events[0].PublishedDate.Format(time.RFC3339)
}
