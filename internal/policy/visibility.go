package policy

import (
	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/taxonomy"
)

// StatusFacet narrows the ticket list by lifecycle state.
type StatusFacet string

const (
	StatusFacetActive   StatusFacet = "ACTIVE"
	StatusFacetResolved StatusFacet = "RESOLVED"
	StatusFacetAll      StatusFacet = "ALL"
)

// FacetAll is the wildcard for category and school facets.
const FacetAll = "ALL"

// Filters are the viewer-selected list facets. Facets are global: they are
// applied before the access check and are never bypassed by super-admin or
// ownership overrides.
type Filters struct {
	Status   StatusFacet
	Category string
	School   string
}

// VisibleTickets projects the visible, redacted subset of tickets for a
// viewer, preserving the caller-supplied order. Per ticket: status facet,
// category facet, school facet, then AccessPolicy.CanView.
func (p *AccessPolicy) VisibleTickets(tickets []domain.Ticket, viewer *domain.Staff, filters Filters, tax *taxonomy.Taxonomy) []domain.Ticket {
	visible := make([]domain.Ticket, 0, len(tickets))
	for i := range tickets {
		ticket := tickets[i]
		if !matchesStatusFacet(filters.Status, ticket.Status) {
			continue
		}
		if !matchesFacet(filters.Category, ticket.Category) {
			continue
		}
		if !matchesFacet(filters.School, ticket.School) {
			continue
		}
		if !p.CanView(viewer, &ticket, tax) {
			continue
		}
		visible = append(visible, p.RedactForViewer(viewer, ticket))
	}
	return visible
}

func matchesStatusFacet(facet StatusFacet, status domain.TicketStatus) bool {
	switch facet {
	case StatusFacetActive:
		return status != domain.TicketStatusResolved
	case StatusFacetResolved:
		return status == domain.TicketStatusResolved
	default:
		return true
	}
}

func matchesFacet(selected, value string) bool {
	if selected == "" || selected == FacetAll {
		return true
	}
	return selected == value
}
