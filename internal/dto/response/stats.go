package response

type StatisticsResponse struct {
	TotalBookings   int64             `json:"totalBookings"`
	ByStatus        map[string]int64  `json:"byStatus"`
	ByPaymentStatus map[string]int64  `json:"byPaymentStatus"`
	Revenue         float64           `json:"revenue"`
	Currency        string            `json:"currency"`
	RecentBookings  []BookingResponse `json:"recentBookings"`
}
