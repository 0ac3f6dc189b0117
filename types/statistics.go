package types

// DonationStatistics summarizes the donation collection for dashboards.
type DonationStatistics struct {
	// TotalDonations is the number of donation records.
	TotalDonations int64 `json:"totalDonations"`

	// ByStatus counts donations per status.
	ByStatus map[string]int64 `json:"byStatus"`

	// ByFoodType counts donations per food type.
	ByFoodType map[string]int64 `json:"byFoodType"`

	// RecentDonations counts donations per calendar day (UTC) for the
	// trailing window, oldest first.
	RecentDonations []DailyCount `json:"recentDonations"`
}

// DailyCount is the number of donations created on a calendar day.
type DailyCount struct {
	// Date is formatted as YYYY-MM-DD.
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// EmptyStatistics returns a zeroed statistics object.
func EmptyStatistics() DonationStatistics {
	return DonationStatistics{
		ByStatus:        map[string]int64{},
		ByFoodType:      map[string]int64{},
		RecentDonations: []DailyCount{},
	}
}
