package dto

import (
	"time"

	"github.com/spec-kit/district-helpdesk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returns the issued token.
type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Staff     StaffResponse `json:"staff"`
}

// StaffResponse is the public view of a staff member.
type StaffResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Department    string   `json:"department"`
	Role          string   `json:"role"`
	SuperAdmin    bool     `json:"super_admin"`
	AccessSchools []string `json:"access_schools"`
	AccessScopes  []string `json:"access_scopes"`
}

// NewStaffResponse maps a staff member, dropping credentials.
func NewStaffResponse(s *domain.Staff) StaffResponse {
	return StaffResponse{
		ID:            s.ID,
		Name:          s.Name,
		Email:         s.Email,
		Department:    s.Department,
		Role:          s.Role,
		SuperAdmin:    s.SuperAdmin,
		AccessSchools: s.AccessSchools,
		AccessScopes:  s.AccessScopes,
	}
}

// StaffListQuery carries the staff directory filters.
type StaffListQuery struct {
	Department string `query:"department"`
	Active     string `query:"active"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// PasswordResetRequest starts a reset flow.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes a reset flow.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
