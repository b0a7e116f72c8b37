package intel

import (
	"sort"
	"strings"
	"unicode"
)

// #region stopwords

// stopwords contains common English words excluded from keyword stats.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"he": true, "she": true, "her": true, "him": true, "us": true,
	"them": true, "just": true, "like": true, "get": true, "more": true,
}

// tokenize splits text into lowercase non-stopword tokens. Duplicates
// within one text count once so a repeated word does not dominate.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	seen := make(map[string]bool)
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		tokens = append(tokens, w)
	}
	return tokens
}

// #endregion stopwords

// #region keyword-stats

// KeywordCount is one keyword with the number of posts mentioning it.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Posts   int    `json:"posts"`
}

// TopKeywords counts keyword occurrences across texts and returns the
// n most frequent, ties broken alphabetically.
func TopKeywords(texts []string, n int) []KeywordCount {
	counts := make(map[string]int)
	for _, text := range texts {
		for _, tok := range tokenize(text) {
			counts[tok]++
		}
	}

	keywords := make([]KeywordCount, 0, len(counts))
	for kw, c := range counts {
		keywords = append(keywords, KeywordCount{Keyword: kw, Posts: c})
	}
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Posts != keywords[j].Posts {
			return keywords[i].Posts > keywords[j].Posts
		}
		return keywords[i].Keyword < keywords[j].Keyword
	})
	if n < len(keywords) {
		keywords = keywords[:n]
	}
	return keywords
}

// #endregion keyword-stats
