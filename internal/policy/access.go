// Package policy decides which tickets a staff member may see and act on.
// Decisions are pure functions over canonical domain values; all field
// normalization happens at the store boundary, never here.
package policy

import (
	"strings"

	"github.com/spec-kit/district-helpdesk/internal/domain"
	"github.com/spec-kit/district-helpdesk/internal/taxonomy"
)

// RedactedSubject replaces a sensitive ticket's subject in listings shown
// to authorized-but-non-admin viewers.
const RedactedSubject = "Confidential Ticket"

// MutationRule selects who may mutate tickets. Super-admin-only is the
// conservative default carried from the single-district deployment.
type MutationRule int

const (
	MutateSuperAdminOnly MutationRule = iota
	MutateDepartmentScoped
)

// AccessPolicy evaluates view and mutation rights.
type AccessPolicy struct {
	mutation MutationRule
}

// NewAccessPolicy builds a policy with the given mutation rule.
func NewAccessPolicy(rule MutationRule) *AccessPolicy {
	return &AccessPolicy{mutation: rule}
}

// CanView decides list-level visibility. Rules short-circuit in order:
// super-admin, own ticket by requester email, owning-department scope,
// school scope.
func (p *AccessPolicy) CanView(viewer *domain.Staff, ticket *domain.Ticket, tax *taxonomy.Taxonomy) bool {
	if viewer == nil || ticket == nil {
		return false
	}
	if viewer.SuperAdmin {
		return true
	}
	if strings.EqualFold(ticket.RequesterEmail, viewer.Email) {
		return true
	}
	owning := tax.OwningDepartment(ticket.Category)
	if !viewer.HasDepartmentAccess(owning) {
		return false
	}
	return viewer.HasSchoolAccess(ticket.School)
}

// CanViewDetail gates full ticket content. Sensitive tickets require
// super-admin standing even when list-level visibility passes.
func (p *AccessPolicy) CanViewDetail(viewer *domain.Staff, ticket *domain.Ticket, tax *taxonomy.Taxonomy) bool {
	if !p.CanView(viewer, ticket, tax) {
		return false
	}
	if ticket.Sensitive && !viewer.SuperAdmin {
		return false
	}
	return true
}

// CanMutate decides whether the viewer may change status, assignment, or
// comments on the ticket.
func (p *AccessPolicy) CanMutate(viewer *domain.Staff, ticket *domain.Ticket, tax *taxonomy.Taxonomy) bool {
	if viewer == nil || ticket == nil {
		return false
	}
	switch p.mutation {
	case MutateDepartmentScoped:
		if viewer.SuperAdmin {
			return true
		}
		owning := tax.OwningDepartment(ticket.Category)
		return viewer.HasDepartmentAccess(owning) && viewer.HasSchoolAccess(ticket.School)
	default:
		return viewer.SuperAdmin
	}
}

// RedactForViewer returns a copy of the ticket safe for listing surfaces.
// Sensitive tickets show only the placeholder subject to non-admins; the
// description is cleared as well.
func (p *AccessPolicy) RedactForViewer(viewer *domain.Staff, ticket domain.Ticket) domain.Ticket {
	if !ticket.Sensitive || (viewer != nil && viewer.SuperAdmin) {
		return ticket
	}
	ticket.Subject = RedactedSubject
	ticket.Description = ""
	return ticket
}
