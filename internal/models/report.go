package models

// SummaryReport holds ReportDays samples per metric, oldest first.
type SummaryReport struct {
	TotalUsers        []int64 `json:"total_users"`
	UsersCreatedToday []int64 `json:"users_created_today"`
	TotalBookings     []int64 `json:"total_bookings"`
	BookingsToday     []int64 `json:"bookings_today"`
	CancelledBookings []int64 `json:"cancelled_bookings"`
	ApprovedBookings  []int64 `json:"approved_bookings"`
}

// Series is a named metric in display order.
type Series struct {
	Key    string
	Label  string
	Values []int64
}

// AllSeries lists the report metrics in the order the dashboard shows them.
func (r *SummaryReport) AllSeries() []Series {
	return []Series{
		{Key: "total_users", Label: "Total Users", Values: r.TotalUsers},
		{Key: "users_created_today", Label: "Users Created Today", Values: r.UsersCreatedToday},
		{Key: "total_bookings", Label: "Total Bookings", Values: r.TotalBookings},
		{Key: "bookings_today", Label: "Bookings Created Today", Values: r.BookingsToday},
		{Key: "cancelled_bookings", Label: "Cancelled Bookings Trend", Values: r.CancelledBookings},
		{Key: "approved_bookings", Label: "Approved Bookings Trend", Values: r.ApprovedBookings},
	}
}
