package analyzer

import (
	"sort"
	"strings"
)

// DefaultMaxSentences bounds extractive summaries.
const DefaultMaxSentences = 6

// Sentence length bounds keep navigation fragments and unpunctuated text
// blobs out of summaries.
const (
	minSummarySentence = 20
	maxSummarySentence = 400
)

// Summarize produces an extractive summary of content. Sentences mentioning
// more of the given terms rank higher, ties resolve to earlier sentences, and
// the selected sentences are emitted in document order. With no term hits the
// opening sentences are used.
func Summarize(content string, terms []string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}

	sentences := splitIntoSentences(content)
	if len(sentences) == 0 {
		return ""
	}

	lowerTerms := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowerTerms = append(lowerTerms, t)
		}
	}

	type scored struct {
		index int
		score int
	}

	candidates := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		if len(s) < minSummarySentence || len(s) > maxSummarySentence {
			continue
		}
		ls := strings.ToLower(s)
		score := 0
		for _, t := range lowerTerms {
			if strings.Contains(ls, t) {
				score++
			}
		}
		candidates = append(candidates, scored{index: i, score: score})
	}

	if len(candidates) == 0 {
		return ""
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		if candidates[a].score != candidates[b].score {
			return candidates[a].score > candidates[b].score
		}
		return candidates[a].index < candidates[b].index
	})

	if len(candidates) > maxSentences {
		candidates = candidates[:maxSentences]
	}

	sort.Slice(candidates, func(a, b int) bool {
		return candidates[a].index < candidates[b].index
	})

	parts := make([]string, len(candidates))
	for i, c := range candidates {
		parts[i] = sentences[c.index]
	}
	return strings.Join(parts, " ")
}
