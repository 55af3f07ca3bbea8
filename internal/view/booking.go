package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"talento/internal/backend"
	"talento/internal/domain"
	"talento/internal/events"
	"talento/internal/models"
	"talento/internal/realtime"

	"github.com/rs/zerolog"
)

// ErrNoPendingDay is returned by ConfirmDay when no day was selected.
var ErrNoPendingDay = errors.New("no date selected")

// BookingView is the performer's booking dashboard: three status partitions,
// blocked calendar days and the coin transactions tab. While mounted it
// merges BookingUpdated pushes into the partitions.
type BookingView struct {
	backend    domain.Backend
	subscriber realtime.Subscriber
	notifier   Notifier
	logger     zerolog.Logger
	loc        *time.Location
	user       models.User

	mu           sync.Mutex
	lc           lifecycle
	sub          *realtime.Subscription
	onChange     func()
	loaded       bool
	performerID  int64
	lists        partitions
	unavailable  []time.Time
	transactions []models.Transaction
	selected     *models.Booking
	pendingDay   *time.Time
	pushSeq      uint64
	overlay      map[int64]*overlayEntry
}

// NewBookingView builds the view for user. subscriber may be nil.
func NewBookingView(b domain.Backend, sub realtime.Subscriber, n Notifier, user models.User, loc *time.Location, logger *zerolog.Logger) *BookingView {
	if loc == nil {
		loc = models.LoadLocation("")
	}
	return &BookingView{
		backend:    b,
		subscriber: sub,
		notifier:   n,
		logger:     logger.With().Str("component", "booking_view").Int64("user_id", user.ID).Logger(),
		loc:        loc,
		user:       user,
		overlay:    make(map[int64]*overlayEntry),
	}
}

// OnChange registers a callback run after a realtime push changed the lists.
func (v *BookingView) OnChange(fn func()) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

// Mount subscribes to booking updates and loads every list.
func (v *BookingView) Mount(ctx context.Context) error {
	v.mu.Lock()
	gen := v.lc.begin()
	old := v.sub
	v.sub = nil
	v.loaded = false
	v.performerID = 0
	v.lists = partitions{}
	v.unavailable = nil
	v.transactions = nil
	v.selected = nil
	v.pendingDay = nil
	v.overlay = make(map[int64]*overlayEntry)
	v.mu.Unlock()
	old.Close()

	if v.subscriber != nil {
		sub := v.subscriber.Subscribe(events.ChannelBookings, events.EventBookingUpdated, func(e *events.Event) error {
			return v.handleUpdate(gen, e)
		})
		v.mu.Lock()
		if !v.lc.live(gen) {
			v.mu.Unlock()
			sub.Close()
			return nil
		}
		v.sub = sub
		v.mu.Unlock()
	}

	return v.load(ctx, gen)
}

// Unmount releases the realtime subscription and drops in-flight results.
func (v *BookingView) Unmount() {
	v.mu.Lock()
	v.lc.end()
	sub := v.sub
	v.sub = nil
	v.selected = nil
	v.pendingDay = nil
	v.mu.Unlock()
	sub.Close()
}

// Refresh reloads every list within the current mount.
func (v *BookingView) Refresh(ctx context.Context) error {
	v.mu.Lock()
	gen := v.lc.gen
	live := v.lc.live(gen)
	v.mu.Unlock()
	if !live {
		return nil
	}
	return v.load(ctx, gen)
}

// load fails only when the portfolio or the pending list cannot be fetched.
// Other failures are reported through the notifier and leave their list empty.
func (v *BookingView) load(ctx context.Context, gen uint64) error {
	portfolio, err := v.backend.GetPortfolio(ctx, v.user.ID)
	if err != nil {
		v.logger.Error().Err(err).Msg("Error fetching performer portfolio")
		v.mu.Lock()
		if v.lc.live(gen) {
			v.loaded = true
			v.notifier.Error("Failed to load performer profile.")
		}
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	if !v.lc.live(gen) {
		v.mu.Unlock()
		return nil
	}
	v.performerID = portfolio.ID
	v.mu.Unlock()

	pending, errP := v.backend.ListPendingBookings(ctx, portfolio.ID)
	accepted, errA := v.backend.ListAcceptedBookings(ctx, portfolio.ID)
	declined, errD := v.backend.ListDeclinedBookings(ctx, portfolio.ID)
	dates, errU := v.backend.ListUnavailableDates(ctx, portfolio.ID)
	txs, errT := v.backend.ListTransactions(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}

	report := func(err error, text string) {
		if err == nil {
			return
		}
		v.logger.Error().Err(err).Msg(text)
		v.notifier.Error(text)
	}
	report(errP, "Failed to load bookings.")
	report(errA, "Failed to load accepted bookings.")
	report(errD, "Failed to load declined bookings.")
	report(errU, "Failed to load unavailable dates.")
	report(errT, "Failed to load transactions.")

	v.lists.reset(pending, accepted, declined)
	// pushes seen during this mount win over the fetched snapshot
	for _, id := range sortedOverlay(v.overlay) {
		if err := v.lists.overlay(id, v.overlay[id].fields, v.ownsBooking); err != nil {
			v.logger.Warn().Err(err).Int64("booking_id", id).Msg("Failed to re-apply booking update")
		}
	}
	v.unavailable = dates
	v.transactions = txs
	v.loaded = true

	// secondary lists render empty; only the pending list gates actions
	return errP
}

func (v *BookingView) handleUpdate(gen uint64, e *events.Event) error {
	var payload events.BookingUpdatedPayload
	if err := json.Unmarshal(e.Payload, &payload); err != nil {
		return fmt.Errorf("decode BookingUpdated: %w", err)
	}
	if len(payload.Booking) == 0 {
		return errors.New("BookingUpdated without booking")
	}
	return v.applyUpdate(gen, payload.Booking)
}

// applyUpdate merges one pushed booking and remembers its fields so a
// fetch resolving later cannot roll it back.
func (v *BookingView) applyUpdate(gen uint64, booking json.RawMessage) error {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(booking, &fields); err != nil {
		return fmt.Errorf("decode booking: %w", err)
	}
	id, err := bookingID(fields)
	if err != nil {
		return err
	}
	fields["id"] = json.RawMessage(strconv.FormatInt(id, 10))

	v.mu.Lock()
	if !v.lc.live(gen) {
		v.mu.Unlock()
		return nil
	}

	v.pushSeq++
	entry, ok := v.overlay[id]
	if !ok {
		entry = &overlayEntry{fields: map[string]json.RawMessage{}}
		v.overlay[id] = entry
	}
	entry.seq = v.pushSeq
	for k, val := range fields {
		entry.fields[k] = val
	}

	err = v.lists.overlay(id, fields, v.ownsBooking)
	onChange := v.onChange
	v.mu.Unlock()

	if err != nil {
		return err
	}
	v.logger.Debug().Int64("booking_id", id).Msg("Merged booking update")
	if onChange != nil {
		onChange()
	}
	return nil
}

// ownsBooking drops pushes for other performers when both ids are known.
func (v *BookingView) ownsBooking(b models.Booking) bool {
	return v.performerID == 0 || b.PerformerID == 0 || b.PerformerID == v.performerID
}

func (v *BookingView) Accept(ctx context.Context, id int64) error {
	return v.respond(ctx, id, models.LabelAccepted, v.backend.AcceptBooking)
}

func (v *BookingView) Decline(ctx context.Context, id int64) error {
	return v.respond(ctx, id, models.LabelDeclined, v.backend.DeclineBooking)
}

// respond moves the record locally on success; there is no re-fetch.
func (v *BookingView) respond(ctx context.Context, id int64, label string, call func(context.Context, int64) error) error {
	v.mu.Lock()
	gen := v.lc.gen
	v.mu.Unlock()

	verb := strings.ToLower(label)
	if err := call(ctx, id); err != nil {
		v.logger.Error().Err(err).Int64("booking_id", id).Str("status", label).Msg("Booking status update failed")
		v.mu.Lock()
		if v.lc.live(gen) {
			v.notifier.Error(bookingErrorText(err))
		}
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}

	if p, i, found := v.lists.find(id); found {
		rec := v.lists[p][i]
		rec.Status = label
		v.lists.remove(p, i)
		target := models.PartitionOf(label)
		v.lists[target] = append(v.lists[target], rec)

		if fields, err := recordFields(rec); err == nil {
			v.pushSeq++
			v.overlay[id] = &overlayEntry{seq: v.pushSeq, fields: fields}
		}
	}
	v.logger.Info().Int64("booking_id", id).Str("status", label).Msg("Booking status updated")
	v.notifier.Success(fmt.Sprintf("Booking %s successfully!", verb))
	return nil
}

func bookingErrorText(err error) string {
	var httpErr *backend.HTTPError
	switch {
	case errors.As(err, &httpErr):
		if httpErr.Message != "" {
			return "Error: " + httpErr.Message
		}
		return "Error: Failed to update booking status"
	case backend.IsTransport(err):
		return TransportMessage
	default:
		return UnexpectedMessage
	}
}

// ViewDetail selects a record for the detail panel. No network call.
func (v *BookingView) ViewDetail(id int64) (models.Booking, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	p, i, found := v.lists.find(id)
	if !found {
		return models.Booking{}, false
	}
	rec := v.lists[p][i]
	v.selected = &rec
	return rec, true
}

func (v *BookingView) CloseDetail() {
	v.mu.Lock()
	v.selected = nil
	v.mu.Unlock()
}

func (v *BookingView) Selected() (models.Booking, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.selected == nil {
		return models.Booking{}, false
	}
	return *v.selected, true
}

// SelectDay opens the confirmation step for day.
func (v *BookingView) SelectDay(day time.Time) time.Time {
	start := StartOfDay(day, v.loc)
	v.mu.Lock()
	v.pendingDay = &start
	v.mu.Unlock()
	return start
}

func (v *BookingView) PendingDay() (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pendingDay == nil {
		return time.Time{}, false
	}
	return *v.pendingDay, true
}

// CancelDay discards the selection without a network call.
func (v *BookingView) CancelDay() {
	v.mu.Lock()
	v.pendingDay = nil
	v.mu.Unlock()
}

// ConfirmDay persists the selected day as unavailable.
func (v *BookingView) ConfirmDay(ctx context.Context) error {
	v.mu.Lock()
	gen := v.lc.gen
	day := v.pendingDay
	performerID := v.performerID
	v.pendingDay = nil
	v.mu.Unlock()

	if day == nil {
		return ErrNoPendingDay
	}
	if performerID == 0 {
		v.mu.Lock()
		if v.lc.live(gen) {
			v.notifier.Error("Failed to save unavailable date.")
		}
		v.mu.Unlock()
		return errors.New("performer profile not loaded")
	}

	if err := v.backend.AddUnavailableDates(ctx, performerID, []time.Time{*day}); err != nil {
		v.logger.Error().Err(err).Time("date", *day).Msg("Error saving unavailable date")
		v.mu.Lock()
		if v.lc.live(gen) {
			v.notifier.Error("Failed to save unavailable date.")
		}
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}
	v.unavailable = append(v.unavailable, *day)
	v.notifier.Success("Unavailable date saved successfully!")
	return nil
}

// IsUnavailable compares by calendar day in the view's zone.
func (v *BookingView) IsUnavailable(day time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, d := range v.unavailable {
		if SameDay(d, day, v.loc) {
			return true
		}
	}
	return false
}

// HasAcceptedOn reports whether an accepted booking starts on day's calendar
// date in the view's zone.
func (v *BookingView) HasAcceptedOn(day time.Time) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, b := range v.lists[models.PartitionAccepted] {
		start, ok := b.Day(v.loc)
		if ok && SameDay(start, day, v.loc) {
			return true
		}
	}
	return false
}

func (v *BookingView) Location() *time.Location { return v.loc }

func (v *BookingView) List(p models.Partition) []models.Booking {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Booking(nil), v.lists[p]...)
}

func (v *BookingView) Pending() []models.Booking  { return v.List(models.PartitionPending) }
func (v *BookingView) Accepted() []models.Booking { return v.List(models.PartitionAccepted) }
func (v *BookingView) Declined() []models.Booking { return v.List(models.PartitionDeclined) }

func (v *BookingView) Unavailable() []time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]time.Time(nil), v.unavailable...)
}

func (v *BookingView) Transactions() []models.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Transaction(nil), v.transactions...)
}

func (v *BookingView) PerformerID() int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.performerID
}

func (v *BookingView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}
