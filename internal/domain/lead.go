package domain

import "time"

// Lead is a marketing contact submitted through the public form.
// IDs are UUIDv7 and sort in creation order; the export uses them as a cursor.
type Lead struct {
	ID          string
	Name        string
	Email       string
	Telephone   string
	Position    string
	Message     string
	DateBirth   time.Time
	UTMSource   *string
	UTMMedium   *string
	UTMCampaign *string
	UTMTerm     *string
	UTMContent  *string
	GCLID       *string
	FBCLID      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
