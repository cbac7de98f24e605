package dto

import (
	"time"

	"github.com/spec-kit/lead-service/internal/domain"
)

// LeadRequest payload for POST /leads and PATCH /leads/:id. For PATCH,
// nil fields are left unchanged.
type LeadRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Telephone   *string `json:"telephone"`
	Position    *string `json:"position"`
	Message     *string `json:"message"`
	DateBirth   *string `json:"dateBirth"`
	UTMSource   *string `json:"utm_source"`
	UTMMedium   *string `json:"utm_medium"`
	UTMCampaign *string `json:"utm_campaign"`
	UTMTerm     *string `json:"utm_term"`
	UTMContent  *string `json:"utm_content"`
	GCLID       *string `json:"gclid"`
	FBCLID      *string `json:"fbclid"`
}

// LeadResponse is the public representation of a lead.
type LeadResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Telephone   string    `json:"telephone"`
	Position    string    `json:"position"`
	Message     string    `json:"message"`
	DateBirth   string    `json:"dateBirth"`
	UTMSource   *string   `json:"utm_source"`
	UTMMedium   *string   `json:"utm_medium"`
	UTMCampaign *string   `json:"utm_campaign"`
	UTMTerm     *string   `json:"utm_term"`
	UTMContent  *string   `json:"utm_content"`
	GCLID       *string   `json:"gclid"`
	FBCLID      *string   `json:"fbclid"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LeadListResponse is one page of GET /leads.
type LeadListResponse struct {
	Leads      []LeadResponse `json:"leads"`
	TotalPages int            `json:"totalPages"`
}

// NewLeadResponse maps a domain lead.
func NewLeadResponse(l *domain.Lead) LeadResponse {
	return LeadResponse{
		ID:          l.ID,
		Name:        l.Name,
		Email:       l.Email,
		Telephone:   l.Telephone,
		Position:    l.Position,
		Message:     l.Message,
		DateBirth:   l.DateBirth.Format(time.DateOnly),
		UTMSource:   l.UTMSource,
		UTMMedium:   l.UTMMedium,
		UTMCampaign: l.UTMCampaign,
		UTMTerm:     l.UTMTerm,
		UTMContent:  l.UTMContent,
		GCLID:       l.GCLID,
		FBCLID:      l.FBCLID,
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
}
