package dto

import "github.com/spec-kit/district-helpdesk/internal/directory"

// DirectorySearchQuery carries the free-text person lookup.
type DirectorySearchQuery struct {
	Query string `query:"q"`
}

// DirectoryEntryResponse is one person match.
type DirectoryEntryResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// NewDirectoryEntries maps adapter results.
func NewDirectoryEntries(entries []directory.Entry) []DirectoryEntryResponse {
	out := make([]DirectoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, DirectoryEntryResponse{
			ID:         e.ID,
			Name:       e.Name,
			Email:      e.Email,
			Role:       e.Role,
			Department: e.Department,
		})
	}
	return out
}
