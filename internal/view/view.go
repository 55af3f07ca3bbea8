// Package view holds the dashboard view models shared by the bot and the CLI.
// Views fetch through domain.Backend, keep local state behind a mutex and
// report outcomes through a Notifier. Nothing here renders.
package view

import (
	"time"

	"talento/internal/backend"
)

// Notifier shows short-lived, non-blocking notifications.
type Notifier interface {
	Success(text string)
	Error(text string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Success(string) {}
func (NopNotifier) Error(string)   {}

const (
	TransportMessage  = "No response received from the server. Please check your connection and try again."
	UnexpectedMessage = "An unexpected error occurred. Please try again later."
)

// Empty-state lines.
const (
	EmptyApplications     = "No applications found."
	EmptyPendingBookings  = "No Booking Requests Available"
	EmptyAcceptedBookings = "No Accepted Bookings Available"
	EmptyDeclinedBookings = "No Declined Bookings Available"
	EmptyTransactions     = "No Transactions Available"
	EmptyManagePending    = "No pending bookings available."
	EmptyBookingHistory   = "No booking history available."
	EmptyRejectedBookings = "No rejected bookings available."
	EmptyReport           = "Error loading data. Please try again."
)

// ErrorText picks the backend error text, then the transport message, then fallback.
func ErrorText(err error, fallback string) string {
	if msg, ok := backend.MessageOf(err); ok {
		return msg
	}
	if backend.IsTransport(err) {
		return TransportMessage
	}
	return fallback
}

// lifecycle tracks mounts. Every Mount starts a new generation; results
// carrying an older generation are dropped.
type lifecycle struct {
	gen     uint64
	mounted bool
}

func (l *lifecycle) begin() uint64 {
	l.gen++
	l.mounted = true
	return l.gen
}

func (l *lifecycle) end() {
	l.gen++
	l.mounted = false
}

func (l *lifecycle) live(gen uint64) bool {
	return l.mounted && l.gen == gen
}

// SameDay compares two instants by calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.UTC
	}
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
