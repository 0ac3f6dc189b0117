package types

import "time"

// EventType names a donation lifecycle event.
type EventType string

// Published donation events.
const (
	EventDonationCreated       EventType = "donation.created"
	EventDonationStatusChanged EventType = "donation.status_changed"
)

// DonationEvent is the payload published to the event bus when a
// donation is created or its status changes.
type DonationEvent struct {
	Type       EventType      `json:"type"`
	DonationID string         `json:"donationId"`
	FullName   string         `json:"fullname"`
	Email      string         `json:"email"`
	Status     DonationStatus `json:"status"`
	Previous   DonationStatus `json:"previous,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}
