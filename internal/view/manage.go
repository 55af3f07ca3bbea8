package view

import (
	"context"
	"errors"
	"sync"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

// BookingMetrics are the quick counters shown above the admin booking lists.
type BookingMetrics struct {
	Total    int
	Pending  int
	Accepted int
	Rejected int
}

// ManageBookingView is the admin's read-only look at one performer's bookings.
type ManageBookingView struct {
	backend  domain.Backend
	notifier Notifier
	logger   zerolog.Logger

	mu          sync.Mutex
	lc          lifecycle
	performerID int64
	bookings    []models.Booking
	selected    *models.Booking
	loaded      bool
}

func NewManageBookingView(b domain.Backend, n Notifier, logger *zerolog.Logger) *ManageBookingView {
	return &ManageBookingView{
		backend:  b,
		notifier: n,
		logger:   logger.With().Str("component", "manage_booking_view").Logger(),
	}
}

// Mount loads every booking of performerID from the three booking endpoints.
func (v *ManageBookingView) Mount(ctx context.Context, performerID int64) error {
	v.mu.Lock()
	gen := v.lc.begin()
	v.performerID = performerID
	v.bookings = nil
	v.selected = nil
	v.loaded = false
	v.mu.Unlock()

	pending, errP := v.backend.ListPendingBookings(ctx, performerID)
	accepted, errA := v.backend.ListAcceptedBookings(ctx, performerID)
	declined, errD := v.backend.ListDeclinedBookings(ctx, performerID)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}
	v.loaded = true

	if err := errors.Join(errP, errA, errD); err != nil {
		v.logger.Error().Err(err).Int64("performer_id", performerID).Msg("Error fetching performer bookings")
		v.notifier.Error(ErrorText(err, "Failed to load bookings."))
	}

	var ps partitions
	ps.reset(pending, accepted, declined)
	v.bookings = append(append(append([]models.Booking(nil), ps[0]...), ps[1]...), ps[2]...)
	return errors.Join(errP, errA, errD)
}

func (v *ManageBookingView) Unmount() {
	v.mu.Lock()
	v.lc.end()
	v.selected = nil
	v.mu.Unlock()
}

func (v *ManageBookingView) PerformerID() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.performerID
}

func (v *ManageBookingView) Metrics() BookingMetrics {
	v.mu.Lock()
	defer v.mu.Unlock()
	m := BookingMetrics{Total: len(v.bookings)}
	for _, b := range v.bookings {
		switch {
		case models.PartitionOf(b.Status) == models.PartitionPending:
			m.Pending++
		case models.IsStatus(b.Status, models.StatusAccepted), models.IsStatus(b.Status, models.StatusApproved):
			m.Accepted++
		case models.PartitionOf(b.Status) == models.PartitionDeclined:
			m.Rejected++
		}
	}
	return m
}

func (v *ManageBookingView) filter(keep func(models.Booking) bool) []models.Booking {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.Booking
	for _, b := range v.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func (v *ManageBookingView) Pending() []models.Booking {
	return v.filter(func(b models.Booking) bool { return models.PartitionOf(b.Status) == models.PartitionPending })
}

// History lists finished bookings.
func (v *ManageBookingView) History() []models.Booking {
	return v.filter(func(b models.Booking) bool {
		return models.IsStatus(b.Status, models.StatusDone) || models.IsStatus(b.Status, models.StatusCompleted)
	})
}

func (v *ManageBookingView) Rejected() []models.Booking {
	return v.filter(func(b models.Booking) bool { return models.PartitionOf(b.Status) == models.PartitionDeclined })
}

func (v *ManageBookingView) ViewDetail(id int64) (models.Booking, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, b := range v.bookings {
		if b.ID == id {
			rec := b
			v.selected = &rec
			return rec, true
		}
	}
	return models.Booking{}, false
}

func (v *ManageBookingView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}
