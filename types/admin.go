package types

import "time"

// Admin represents a privileged account. It shares the user field shape
// but is stored and authenticated separately and owns no donations.
type Admin struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullname"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	Pincode      string    `json:"pincode"`
	Address      string    `json:"address"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DashboardStats is the admin dashboard summary.
type DashboardStats struct {
	TotalUsers        int64                    `json:"totalUsers"`
	TotalDonations    int64                    `json:"totalDonations"`
	TotalFoodQuantity int64                    `json:"totalFoodQuantity"`
	StatusCounts      map[DonationStatus]int64 `json:"statusCounts"`
	RecentDonations   []Donation               `json:"recentDonations"`
	RecentUsers       []User                   `json:"recentUsers"`
}

// StatusListing is a filtered donation list with per-status counts.
type StatusListing struct {
	Donations []Donation       `json:"donations"`
	Counts    map[string]int64 `json:"counts"`
}
