package types

import "time"

// User represents a registered donor account.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id"`

	// FullName is the user's display or full name.
	FullName string `json:"fullname"`

	// Email is the user's unique, lowercased email address.
	Email string `json:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-"`

	// Phone is the user's unique phone number.
	Phone string `json:"phone"`

	City    string `json:"city"`
	Pincode string `json:"pincode"`
	Address string `json:"address"`

	// TotalDonations is a denormalized count of linked donations. It is
	// a read optimization; the donation store is authoritative.
	TotalDonations int `json:"totalDonations"`

	// Donations holds back-references to linked donations in link order.
	Donations []string `json:"donations"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp of the most recent profile update.
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserUpdate carries optional profile changes. Nil fields are left as is.
type UserUpdate struct {
	FullName     *string
	Email        *string
	Phone        *string
	City         *string
	Pincode      *string
	Address      *string
	PasswordHash *string
}

// UserDetails is a user together with the donations attributed to them.
type UserDetails struct {
	User      User       `json:"user"`
	Donations []Donation `json:"donations"`
}
