package taxonomy

import (
	"strings"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

// Decision is the outcome of classifying free text.
type Decision struct {
	Category         string
	OwningDepartment string
	Sensitive        bool
}

// Classify scores text against every category's keyword list and returns
// the best match. Each keyword counts at most once regardless of repeats.
// Ties keep the first category in taxonomy order; a later category must
// strictly exceed the current maximum to win. Zero hits everywhere returns
// the General Support fallback. Pure function; never fails.
func Classify(text string, t *Taxonomy) Decision {
	lowered := strings.ToLower(text)

	best := Decision{
		Category:         domain.FallbackCategory,
		OwningDepartment: domain.UnassignedDepartment,
	}
	bestScore := 0

	for _, cat := range t.Categories() {
		score := 0
		for _, keyword := range cat.Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(keyword)) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = Decision{
				Category:         cat.Name,
				OwningDepartment: cat.OwningDepartment,
				Sensitive:        cat.Sensitive,
			}
		}
	}

	return best
}
