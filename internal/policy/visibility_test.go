package policy

import (
	"reflect"
	"testing"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

func visibilityTickets() []domain.Ticket {
	return []domain.Ticket{
		{ID: "t1", Subject: "wifi out", Category: "IT - Network", School: "North High", Status: domain.TicketStatusOpen, RequesterEmail: "a@district.example"},
		{ID: "t2", Subject: "leaky roof", Category: "Facilities", School: "North High", Status: domain.TicketStatusInProgress, RequesterEmail: "b@district.example"},
		{ID: "t3", Subject: "wifi fixed", Category: "IT - Network", School: "North High", Status: domain.TicketStatusResolved, RequesterEmail: "c@district.example"},
		{ID: "t4", Subject: "wifi out south", Category: "IT - Network", School: "South Elementary", Status: domain.TicketStatusOpen, RequesterEmail: "d@district.example"},
		{ID: "t5", Subject: "payroll question", Category: "HR - Confidential", School: "North High", Status: domain.TicketStatusOpen, Sensitive: true, RequesterEmail: "e@district.example"},
	}
}

func ticketIDs(tickets []domain.Ticket) []string {
	ids := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	return ids
}

func TestVisibleTicketsAppliesFacetsThenAccess(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()

	got := p.VisibleTickets(visibilityTickets(), itTech(), Filters{Status: StatusFacetActive}, tax)
	want := []string{"t1"}
	if !reflect.DeepEqual(ticketIDs(got), want) {
		t.Fatalf("visible = %v, want %v", ticketIDs(got), want)
	}
}

func TestVisibleTicketsActiveExcludesResolvedForEveryone(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()

	got := p.VisibleTickets(visibilityTickets(), superAdmin(), Filters{Status: StatusFacetActive}, tax)
	for _, ticket := range got {
		if ticket.Status == domain.TicketStatusResolved {
			t.Fatal("ACTIVE facet must exclude Resolved even for super-admins")
		}
	}
}

func TestVisibleTicketsResolvedFacet(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()

	got := p.VisibleTickets(visibilityTickets(), superAdmin(), Filters{Status: StatusFacetResolved}, tax)
	if len(got) != 1 || got[0].ID != "t3" {
		t.Fatalf("visible = %v, want [t3]", ticketIDs(got))
	}
}

func TestVisibleTicketsCategoryAndSchoolFacets(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()

	got := p.VisibleTickets(visibilityTickets(), superAdmin(), Filters{
		Status:   StatusFacetAll,
		Category: "IT - Network",
		School:   "South Elementary",
	}, tax)
	if len(got) != 1 || got[0].ID != "t4" {
		t.Fatalf("visible = %v, want [t4]", ticketIDs(got))
	}
}

func TestVisibleTicketsFacetsNotBypassedByOwnership(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()

	// Requester of the resolved ticket does not see it under ACTIVE.
	requester := &domain.Staff{
		Email:         "c@district.example",
		Department:    "Teaching",
		AccessSchools: []string{"North High"},
	}
	got := p.VisibleTickets(visibilityTickets(), requester, Filters{Status: StatusFacetActive}, tax)
	for _, ticket := range got {
		if ticket.ID == "t3" {
			t.Fatal("ownership override must not bypass the status facet")
		}
	}
}

func TestVisibleTicketsPreservesOrderAndIsIdempotent(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()
	tickets := visibilityTickets()

	first := p.VisibleTickets(tickets, superAdmin(), Filters{Status: StatusFacetAll}, tax)
	second := p.VisibleTickets(tickets, superAdmin(), Filters{Status: StatusFacetAll}, tax)

	if !reflect.DeepEqual(ticketIDs(first), []string{"t1", "t2", "t3", "t4", "t5"}) {
		t.Fatalf("order not preserved: %v", ticketIDs(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("re-applying the filter must yield an identical subset")
	}
}

func TestVisibleTicketsRedactsSensitiveSubjects(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	tax := policyTaxonomy()

	hrViewer := &domain.Staff{
		Email:         "hr@district.example",
		Department:    "HR",
		AccessSchools: []string{domain.AllSchools},
	}
	got := p.VisibleTickets(visibilityTickets(), hrViewer, Filters{Status: StatusFacetAll}, tax)
	if len(got) != 1 || got[0].ID != "t5" {
		t.Fatalf("visible = %v, want [t5]", ticketIDs(got))
	}
	if got[0].Subject != RedactedSubject {
		t.Fatalf("subject = %q, want redacted placeholder", got[0].Subject)
	}

	adminView := p.VisibleTickets(visibilityTickets(), superAdmin(), Filters{Status: StatusFacetAll, Category: "HR - Confidential"}, tax)
	if len(adminView) != 1 || adminView[0].Subject != "payroll question" {
		t.Fatal("super-admin listing must keep the real subject")
	}
}

func TestVisibleTicketsEmptyInput(t *testing.T) {
	p := NewAccessPolicy(MutateSuperAdminOnly)
	got := p.VisibleTickets(nil, superAdmin(), Filters{}, policyTaxonomy())
	if len(got) != 0 {
		t.Fatalf("visible = %v, want empty", ticketIDs(got))
	}
}
