package domain

import "time"

// AllSchools is the sentinel value granting access to every school.
const AllSchools = "ALL"

// Staff models a district employee with helpdesk access. Department is the
// home department; AccessScopes lists additional departments the member may
// view. AccessSchools limits visibility to specific sites unless it contains
// the AllSchools sentinel. A super-admin ignores every scope restriction.
type Staff struct {
	ID            string
	Name          string
	Email         string
	PasswordHash  string
	Department    string
	Role          string
	SuperAdmin    bool
	AccessSchools []string
	AccessScopes  []string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasSchoolAccess reports whether the member may see tickets from school.
func (s *Staff) HasSchoolAccess(school string) bool {
	for _, granted := range s.AccessSchools {
		if granted == AllSchools || granted == school {
			return true
		}
	}
	return false
}

// HasDepartmentAccess reports whether dept is the home department or one of
// the additional access scopes.
func (s *Staff) HasDepartmentAccess(dept string) bool {
	if s.Department == dept {
		return true
	}
	for _, scope := range s.AccessScopes {
		if scope == dept {
			return true
		}
	}
	return false
}
