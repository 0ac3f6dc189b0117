package types

import "time"

// Donation represents a single offer of food submitted by a donor.
// A donation may be anonymous or owned by a registered user.
type Donation struct {
	// ID is the unique identifier of the donation.
	ID string `json:"id"`

	// UserID references the owning user, if any. Anonymous donations
	// leave it nil.
	UserID *string `json:"user,omitempty"`

	// FullName is the donor's full name.
	FullName string `json:"fullname"`

	// Email is the donor's contact email address.
	Email string `json:"email"`

	// Phone is the donor's 10 digit phone number.
	Phone string `json:"phone"`

	// FoodType classifies the offered food.
	FoodType FoodType `json:"foodType"`

	// FullAddress is the pickup address.
	FullAddress string `json:"fullAddress"`

	// FoodQuantity is the offered quantity as submitted. It always
	// parses to a positive integer.
	FoodQuantity string `json:"foodQuantity"`

	// Notes holds free text, usually written by an administrator.
	Notes string `json:"notes"`

	// Status is the lifecycle state of the donation.
	Status DonationStatus `json:"status"`

	// DonationDate is the moment the donation was submitted.
	DonationDate time.Time `json:"donationDate"`

	// UniqueID is a random token attached at creation. It is not a
	// semantic key.
	UniqueID string `json:"uniqueId"`

	// CreatedAt is the timestamp when the record was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the most recent update.
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsOwnedBy reports whether the donation references the given user.
func (d Donation) IsOwnedBy(userID string) bool {
	return d.UserID != nil && userID != "" && *d.UserID == userID
}

// DonationStatus is the lifecycle state of a donation.
type DonationStatus string

// Supported donation statuses.
const (
	// StatusPending is the initial state of every donation.
	StatusPending DonationStatus = "pending"

	// StatusAccepted marks a donation an administrator agreed to collect.
	StatusAccepted DonationStatus = "accepted"

	// StatusCompleted marks a collected donation.
	StatusCompleted DonationStatus = "completed"

	// StatusCancelled marks a donation that will not be collected.
	StatusCancelled DonationStatus = "cancelled"
)

// DonationStatuses lists every valid status in display order.
var DonationStatuses = []DonationStatus{
	StatusPending,
	StatusAccepted,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is one of the enumerated statuses.
func (s DonationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// FoodType classifies the food in a donation.
type FoodType string

// Supported food types.
const (
	FoodVeg    FoodType = "veg"
	FoodNonVeg FoodType = "non-veg"
	FoodBoth   FoodType = "both"
)

// FoodTypes lists every valid food type.
var FoodTypes = []FoodType{FoodVeg, FoodNonVeg, FoodBoth}

// Valid reports whether f is one of the enumerated food types.
func (f FoodType) Valid() bool {
	switch f {
	case FoodVeg, FoodNonVeg, FoodBoth:
		return true
	default:
		return false
	}
}

// DonationFilter narrows a donation listing. Zero values are ignored.
type DonationFilter struct {
	// Status restricts results to a single status.
	Status DonationStatus

	// FoodType restricts results to a single food type.
	FoodType FoodType

	// From and To bound DonationDate inclusively.
	From *time.Time
	To   *time.Time

	// OwnerID and OwnerEmail select donations that reference the user
	// OR carry the email. Either side may be empty.
	OwnerID    string
	OwnerEmail string

	// Limit caps the number of results when positive.
	Limit int
}

// HasOwner reports whether the filter carries an owner predicate.
func (f DonationFilter) HasOwner() bool {
	return f.OwnerID != "" || f.OwnerEmail != ""
}
