package view

import (
	"context"
	"sync"
	"time"

	"talento/internal/models"
)

// fakeBackend is an in-memory domain.Backend with call recording.
type fakeBackend struct {
	mu    sync.Mutex
	calls []string

	apps         []models.Application
	portfolio    *models.Portfolio
	pending      []models.Booking
	accepted     []models.Booking
	declined     []models.Booking
	unavailable  []time.Time
	transactions []models.Transaction
	report       *models.SummaryReport

	errs map[string]error
	// gate, when set, blocks ListPendingBookings until closed.
	gate    chan struct{}
	entered chan struct{}

	onApprove func(id int64)
	added     [][]time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{errs: map[string]error{}, portfolio: &models.Portfolio{ID: 44}}
}

func (f *fakeBackend) record(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) Login(ctx context.Context, email, password string) (*models.Session, error) {
	return nil, f.record("Login")
}

func (f *fakeBackend) ListApplications(ctx context.Context) ([]models.Application, error) {
	if err := f.record("ListApplications"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Application(nil), f.apps...), nil
}

func (f *fakeBackend) ApproveApplication(ctx context.Context, id int64) error {
	if err := f.record("ApproveApplication"); err != nil {
		return err
	}
	if f.onApprove != nil {
		f.onApprove(id)
	}
	return nil
}

func (f *fakeBackend) RejectApplication(ctx context.Context, id int64) error {
	return f.record("RejectApplication")
}

func (f *fakeBackend) GetPortfolio(ctx context.Context, userID int64) (*models.Portfolio, error) {
	if err := f.record("GetPortfolio"); err != nil {
		return nil, err
	}
	return f.portfolio, nil
}

func (f *fakeBackend) ListPendingBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	if err := f.record("ListPendingBookings"); err != nil {
		return nil, err
	}
	if f.gate != nil {
		if f.entered != nil {
			close(f.entered)
		}
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Booking(nil), f.pending...), nil
}

func (f *fakeBackend) ListAcceptedBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	if err := f.record("ListAcceptedBookings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Booking(nil), f.accepted...), nil
}

func (f *fakeBackend) ListDeclinedBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	if err := f.record("ListDeclinedBookings"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Booking(nil), f.declined...), nil
}

func (f *fakeBackend) AcceptBooking(ctx context.Context, id int64) error {
	return f.record("AcceptBooking")
}

func (f *fakeBackend) DeclineBooking(ctx context.Context, id int64) error {
	return f.record("DeclineBooking")
}

func (f *fakeBackend) ListUnavailableDates(ctx context.Context, performerID int64) ([]time.Time, error) {
	if err := f.record("ListUnavailableDates"); err != nil {
		return nil, err
	}
	return f.unavailable, nil
}

func (f *fakeBackend) AddUnavailableDates(ctx context.Context, performerID int64, dates []time.Time) error {
	if err := f.record("AddUnavailableDates"); err != nil {
		return err
	}
	f.mu.Lock()
	f.added = append(f.added, dates)
	f.mu.Unlock()
	return nil
}

func (f *fakeBackend) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	if err := f.record("ListTransactions"); err != nil {
		return nil, err
	}
	return f.transactions, nil
}

func (f *fakeBackend) SummaryReport(ctx context.Context) (*models.SummaryReport, error) {
	if err := f.record("SummaryReport"); err != nil {
		return nil, err
	}
	return f.report, nil
}

// recorder is a Notifier that keeps every notification.
type recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *recorder) Success(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, text)
}

func (r *recorder) Error(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, text)
}

func (r *recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}
