package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventLeadCreated EventType = "lead_created"
	EventLeadDeleted EventType = "lead_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	ActorID   string      `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// LeadCreatedPayload carries what notifications need about a new lead.
type LeadCreatedPayload struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	UTMSource   *string `json:"utm_source,omitempty"`
	UTMCampaign *string `json:"utm_campaign,omitempty"`
}
