// Package kb matches free text against knowledge-base articles. Two
// strategies coexist: trigger containment for pre-ticket deflection and
// weighted term overlap for structured search. They evolved separately in
// different intake flows and are kept as distinct named entry points.
package kb

import (
	"strings"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

const (
	titleWordScore    = 10
	categoryWordScore = 5
	fullQueryBonus    = 20
	minWordLength     = 4
)

// MatchTriggers returns the first article with any trigger term contained
// in the lowercased text. No scoring; declared article order wins.
func MatchTriggers(text string, articles []domain.Article) (domain.Article, bool) {
	lowered := strings.ToLower(text)
	for _, article := range articles {
		for _, trigger := range article.Triggers {
			if trigger == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(trigger)) {
				return article, true
			}
		}
	}
	return domain.Article{}, false
}

// MatchWeighted scores articles by term overlap with the query: +10 per
// query word (length > 3 after cleaning) contained in the cleaned title,
// +5 per word contained in the category label, and +20 when the whole
// cleaned query is contained in the cleaned title. The strict maximum wins
// with first-seen order on ties; a zero maximum yields no match.
func MatchWeighted(query string, articles []domain.Article) (domain.Article, bool) {
	cleanedQuery := cleanText(query)
	words := queryWords(cleanedQuery)

	var best domain.Article
	bestScore := 0

	for _, article := range articles {
		title := cleanText(article.Title)
		category := cleanText(article.Category)

		score := 0
		for _, word := range words {
			if strings.Contains(title, word) {
				score += titleWordScore
			}
			if strings.Contains(category, word) {
				score += categoryWordScore
			}
		}
		if cleanedQuery != "" && strings.Contains(title, cleanedQuery) {
			score += fullQueryBonus
		}

		if score > bestScore {
			bestScore = score
			best = article
		}
	}

	if bestScore == 0 {
		return domain.Article{}, false
	}
	return best, true
}

// cleanText lowercases and strips every non-alphanumeric rune except
// spaces, then collapses the result to single-space word separation.
func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func queryWords(cleaned string) []string {
	var words []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) >= minWordLength {
			words = append(words, word)
		}
	}
	return words
}
