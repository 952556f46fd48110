package release

import (
	"cmp"
	"regexp"
	"slices"

	"github.com/hbollon/go-edlib"
)

var numberToken = regexp.MustCompile(`\b\d+\b`)

// MatchConfidence represents the confidence level of a title match.
type MatchConfidence int

const (
	ConfidenceNone   MatchConfidence = iota // Score < 0.70
	ConfidenceLow                           // Score >= 0.70
	ConfidenceMedium                        // Score >= 0.85
	ConfidenceHigh                          // Score >= 0.95
)

func (c MatchConfidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

func confidenceFor(score float64) MatchConfidence {
	switch {
	case score >= 0.95:
		return ConfidenceHigh
	case score >= 0.85:
		return ConfidenceMedium
	case score >= 0.70:
		return ConfidenceLow
	default:
		return ConfidenceNone
	}
}

// MatchResult is one candidate scored against a query.
type MatchResult struct {
	Index      int // position in the candidate slice
	Title      string
	Score      float64 // 0.0-1.0
	Confidence MatchConfidence
}

// Similarity scores two titles with Jaro-Winkler over their clean forms.
// Titles whose sequence numbers agree ("Rocky III" / "Rocky 3") get a small
// bonus and disagreeing ones a penalty.
func Similarity(a, b string) float64 {
	ca, cb := CleanTitle(a), CleanTitle(b)
	if ca == "" || cb == "" {
		return 0
	}
	score := float64(edlib.JaroWinklerSimilarity(ca, cb))
	return adjustForNumbers(score, numberToken.FindAllString(ca, -1), numberToken.FindAllString(cb, -1))
}

func adjustForNumbers(score float64, queryNums, candidateNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(candidateNums) == 0 {
		return score * 0.85
	}
	for _, n := range queryNums {
		if slices.Contains(candidateNums, n) {
			return min(score*1.05, 1.0)
		}
	}
	return score * 0.90
}

// MatchTitle returns the best scoring candidate. Title is empty when nothing
// reaches ConfidenceLow.
func MatchTitle(query string, candidates []string) MatchResult {
	ranked := Rank(query, candidates, 1)
	if len(ranked) == 0 {
		return MatchResult{Index: -1, Confidence: ConfidenceNone}
	}
	return ranked[0]
}

// Rank scores every candidate against query and returns those with at least
// ConfidenceLow, best first, at most limit results (limit <= 0 means all).
// Ties keep candidate order.
func Rank(query string, candidates []string, limit int) []MatchResult {
	var results []MatchResult
	for i, c := range candidates {
		score := Similarity(query, c)
		conf := confidenceFor(score)
		if conf == ConfidenceNone {
			continue
		}
		results = append(results, MatchResult{Index: i, Title: c, Score: score, Confidence: conf})
	}
	slices.SortStableFunc(results, func(a, b MatchResult) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
