package view

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

// Chart widths in samples per row. The sidebar takes room from the charts.
const (
	ChartWidthFull   = models.ReportDays
	ChartWidthNarrow = models.ReportDays / 2
)

// Rate is a percentage that may be undefined.
type Rate struct {
	Value float64
	Valid bool
}

func (r Rate) String() string {
	if !r.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", r.Value)
}

// ComputeRate returns part/total*100 rounded to two decimals. A zero total
// or a non-finite result gives an invalid Rate.
func ComputeRate(part, total int64) Rate {
	if total == 0 {
		return Rate{}
	}
	v := float64(part) / float64(total) * 100
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Rate{}
	}
	return Rate{Value: math.Round(v*100) / 100, Valid: true}
}

// Normalize fits values to n samples: the newest n are kept and short
// series are left-padded with zeros. ok is false when the length was wrong.
func Normalize(values []int64, n int) ([]int64, bool) {
	out := make([]int64, n)
	if len(values) >= n {
		copy(out, values[len(values)-n:])
	} else {
		copy(out[n-len(values):], values)
	}
	return out, len(values) == n
}

// DayLabels returns n "Jan 2" labels ending today in loc, oldest first.
func DayLabels(now time.Time, loc *time.Location, n int) []string {
	today := StartOfDay(now, loc)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[i] = today.AddDate(0, 0, -(n - 1 - i)).Format(models.LabelLayout)
	}
	return labels
}

type SeriesView struct {
	Key      string
	Label    string
	Values   []int64
	Latest   int64
	Mismatch bool
}

// Report is the display-ready summary.
type Report struct {
	Labels []string
	Series []SeriesView

	TotalUsers        int64
	UsersCreatedToday int64
	TotalBookings     int64
	BookingsToday     int64
	CancelledBookings int64
	ApprovedBookings  int64

	ApprovalRate     Rate
	CancellationRate Rate

	// Mismatch is set when any series did not carry exactly ReportDays samples.
	Mismatch bool
}

func (r Report) SeriesByKey(key string) (SeriesView, bool) {
	for _, s := range r.Series {
		if s.Key == key {
			return s, true
		}
	}
	return SeriesView{}, false
}

// BuildReport aligns the summary with the trailing day labels.
func BuildReport(summary *models.SummaryReport, now time.Time, loc *time.Location) Report {
	n := models.ReportDays
	rep := Report{Labels: DayLabels(now, loc, n)}
	if summary == nil {
		summary = &models.SummaryReport{}
	}

	latest := map[string]int64{}
	for _, s := range summary.AllSeries() {
		values, ok := Normalize(s.Values, n)
		sv := SeriesView{Key: s.Key, Label: s.Label, Values: values, Latest: values[n-1], Mismatch: !ok}
		rep.Series = append(rep.Series, sv)
		latest[s.Key] = sv.Latest
		if !ok {
			rep.Mismatch = true
		}
	}

	rep.TotalUsers = latest["total_users"]
	rep.UsersCreatedToday = latest["users_created_today"]
	rep.TotalBookings = latest["total_bookings"]
	rep.BookingsToday = latest["bookings_today"]
	rep.CancelledBookings = latest["cancelled_bookings"]
	rep.ApprovedBookings = latest["approved_bookings"]
	rep.ApprovalRate = ComputeRate(rep.ApprovedBookings, rep.TotalBookings)
	rep.CancellationRate = ComputeRate(rep.CancelledBookings, rep.TotalBookings)
	return rep
}

// ReportingView fetches the summary once per mount.
type ReportingView struct {
	backend  domain.Backend
	notifier Notifier
	logger   zerolog.Logger
	loc      *time.Location
	now      func() time.Time

	mu     sync.Mutex
	lc     lifecycle
	report *Report
	loaded bool
}

func NewReportingView(b domain.Backend, n Notifier, loc *time.Location, logger *zerolog.Logger) *ReportingView {
	if loc == nil {
		loc = models.LoadLocation("")
	}
	return &ReportingView{
		backend:  b,
		notifier: n,
		logger:   logger.With().Str("component", "reporting_view").Logger(),
		loc:      loc,
		now:      time.Now,
	}
}

func (v *ReportingView) Mount(ctx context.Context) error {
	v.mu.Lock()
	gen := v.lc.begin()
	v.report = nil
	v.loaded = false
	v.mu.Unlock()

	summary, err := v.backend.SummaryReport(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}
	v.loaded = true
	if err != nil {
		v.logger.Error().Err(err).Msg("Error fetching summary data")
		v.notifier.Error(ErrorText(err, "Failed to load summary report."))
		return err
	}

	rep := BuildReport(summary, v.now(), v.loc)
	if rep.Mismatch {
		v.logger.Warn().Msg("Summary report series length mismatch, padded to 30 days")
	}
	v.report = &rep
	return nil
}

func (v *ReportingView) Unmount() {
	v.mu.Lock()
	v.lc.end()
	v.mu.Unlock()
}

// Report returns the built report; ok is false until a fetch succeeded.
func (v *ReportingView) Report() (Report, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.report == nil {
		return Report{}, false
	}
	return *v.report, true
}

func (v *ReportingView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// ChartWidth is the number of columns a trend chart may use.
func ChartWidth(sidebarOpen bool) int {
	if sidebarOpen {
		return ChartWidthNarrow
	}
	return ChartWidthFull
}
