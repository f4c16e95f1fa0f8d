package httptransport

import (
	"rtw-gateway/internal/check"
	"rtw-gateway/pkg/validation"
	s "rtw-gateway/pkg/string"
)

// CheckPayload is the HTTP request DTO for a verification attempt.
//
// Share code and date of birth rules are deliberately NOT enforced here:
// those belong to the engine's validation gate, which turns them into Error
// outcomes the UI renders. The transport layer only rejects structurally
// unusable requests (unknown role, oversized fields).
type CheckPayload struct {
	ShareCode        string `json:"share_code" validate:"max=64"`
	DateOfBirth      string `json:"date_of_birth" validate:"max=32"`
	Forename         string `json:"forename" validate:"max=100"`
	Surname          string `json:"surname" validate:"max=100"`
	RequestedBy      string `json:"requested_by" validate:"required,oneof=employee employer"`
	RequesterName    string `json:"requester_name" validate:"max=200"`
	Organization     string `json:"organization" validate:"max=200"`
	AllowStudent     bool   `json:"allow_student"`
	AllowSponsorship bool   `json:"allow_sponsorship"`
}

// Normalize trims whitespace from all free-text fields.
func (p *CheckPayload) Normalize() {
	if p == nil {
		return
	}
	s.TrimStrings(&p.ShareCode, &p.DateOfBirth, &p.Forename, &p.Surname,
		&p.RequestedBy, &p.RequesterName, &p.Organization)
}

// Validate enforces transport-level structure.
func (p *CheckPayload) Validate() error {
	return validation.Validate(p)
}

// ToDomain converts the DTO into the immutable engine request.
func (p *CheckPayload) ToDomain() (check.CheckRequest, error) {
	role, err := check.ParseRequesterRole(p.RequestedBy)
	if err != nil {
		return check.CheckRequest{}, err
	}
	return check.CheckRequest{
		ShareCode:        p.ShareCode,
		DateOfBirth:      p.DateOfBirth,
		Forename:         p.Forename,
		Surname:          p.Surname,
		RequestedBy:      role,
		RequesterName:    p.RequesterName,
		Organization:     p.Organization,
		AllowStudent:     p.AllowStudent,
		AllowSponsorship: p.AllowSponsorship,
	}, nil
}
