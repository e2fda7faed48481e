package kb

import (
	"testing"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

func testArticles() []domain.Article {
	return []domain.Article{
		{
			ID:       "kb-1",
			Title:    "Troubleshooting Slow Wifi",
			Category: "IT - Network",
			Triggers: []string{"wifi", "slow internet", "wireless"},
		},
		{
			ID:       "kb-2",
			Title:    "Resetting Your District Password",
			Category: "IT - Accounts",
			Triggers: []string{"password", "locked out", "login"},
		},
		{
			ID:       "kb-3",
			Title:    "Submitting a Facilities Work Order",
			Category: "Facilities",
			Triggers: []string{"work order", "maintenance"},
		},
	}
}

func TestMatchTriggersFirstMatchWins(t *testing.T) {
	articles := testArticles()

	article, ok := MatchTriggers("I got locked out of my account", articles)
	if !ok {
		t.Fatal("expected a trigger match")
	}
	if article.ID != "kb-2" {
		t.Fatalf("article = %s, want kb-2", article.ID)
	}

	// Text matching triggers of two articles returns the first in order.
	article, ok = MatchTriggers("slow internet and a forgotten password", articles)
	if !ok {
		t.Fatal("expected a trigger match")
	}
	if article.ID != "kb-1" {
		t.Fatalf("article = %s, want kb-1 (earlier in article order)", article.ID)
	}
}

func TestMatchTriggersCaseInsensitive(t *testing.T) {
	article, ok := MatchTriggers("The WIFI is down again", testArticles())
	if !ok || article.ID != "kb-1" {
		t.Fatalf("article = %v ok = %v, want kb-1", article.ID, ok)
	}
}

func TestMatchTriggersNoMatch(t *testing.T) {
	if _, ok := MatchTriggers("the bus was late this morning", testArticles()); ok {
		t.Fatal("unexpected trigger match")
	}
}

func TestMatchWeightedScoresTitleWords(t *testing.T) {
	articles := testArticles()

	article, ok := MatchWeighted("wifi is very slow today", articles)
	if !ok {
		t.Fatal("expected a weighted match")
	}
	if article.ID != "kb-1" {
		t.Fatalf("article = %s, want kb-1", article.ID)
	}
}

func TestMatchWeightedFullQueryBonus(t *testing.T) {
	articles := []domain.Article{
		{ID: "a", Title: "Printer Jams", Category: "IT - Hardware"},
		{ID: "b", Title: "How to Fix Slow Wifi", Category: "IT - Network"},
	}

	article, ok := MatchWeighted("slow wifi", articles)
	if !ok || article.ID != "b" {
		t.Fatalf("article = %v ok = %v, want b", article.ID, ok)
	}
}

func TestMatchWeightedCategoryWords(t *testing.T) {
	articles := []domain.Article{
		{ID: "a", Title: "Projector Setup Guide", Category: "Classroom Technology"},
	}

	// "classroom" only appears in the category label: +5.
	article, ok := MatchWeighted("classroom equipment question", articles)
	if !ok || article.ID != "a" {
		t.Fatalf("article = %v ok = %v, want a", article.ID, ok)
	}
}

func TestMatchWeightedShortWordsDiscarded(t *testing.T) {
	articles := []domain.Article{
		{ID: "a", Title: "Lab Guide", Category: "IT"},
	}

	// Every query word is length <= 3 after cleaning, so no per-word
	// points accrue and the query is not contained in the title.
	if _, ok := MatchWeighted("the lab map", articles); ok {
		t.Fatal("short words must not score")
	}
}

func TestMatchWeightedFullQueryBonusIgnoresWordLength(t *testing.T) {
	articles := []domain.Article{
		{ID: "a", Title: "The Lab Map", Category: "IT"},
	}

	// Per-word scoring discards short words, but whole-query containment
	// in the title still counts.
	article, ok := MatchWeighted("the lab map", articles)
	if !ok || article.ID != "a" {
		t.Fatalf("article = %v ok = %v, want a via full-query bonus", article.ID, ok)
	}
}

func TestMatchWeightedZeroScoreIsNoMatch(t *testing.T) {
	if _, ok := MatchWeighted("cafeteria lunch balance", testArticles()); ok {
		t.Fatal("unexpected match for unrelated query")
	}
}

func TestMatchWeightedTieKeepsFirstSeen(t *testing.T) {
	articles := []domain.Article{
		{ID: "a", Title: "Wifi Basics", Category: "IT"},
		{ID: "b", Title: "Wifi Basics Advanced", Category: "IT"},
	}

	article, ok := MatchWeighted("wifi question", articles)
	if !ok || article.ID != "a" {
		t.Fatalf("article = %v ok = %v, want a on tie", article.ID, ok)
	}
}

func TestMatchWeightedStripsPunctuation(t *testing.T) {
	articles := testArticles()

	article, ok := MatchWeighted("wi-fi?? slow!!", articles)
	if !ok {
		t.Fatal("expected a weighted match after cleaning")
	}
	if article.ID != "kb-1" {
		t.Fatalf("article = %s, want kb-1", article.ID)
	}
}
