// Package console renders the dashboard views as terminal tables.
package console

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"talento/internal/models"
	"talento/internal/view"

	"github.com/olekukonko/tablewriter"
)

// Printer writes tables and notices to one output.
type Printer struct {
	mu  sync.Mutex
	out io.Writer
	loc *time.Location
}

func NewPrinter(out io.Writer, loc *time.Location) *Printer {
	if loc == nil {
		loc = models.LoadLocation("")
	}
	return &Printer{out: out, loc: loc}
}

var _ view.Notifier = (*Printer)(nil)

func (p *Printer) Success(text string) { p.Printf("✔ %s\n", text) }
func (p *Printer) Error(text string)   { p.Printf("✖ %s\n", text) }

func (p *Printer) Printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) table(header []string, rows [][]string, empty string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(rows) == 0 {
		_, err := fmt.Fprintln(p.out, empty)
		return err
	}
	t := tablewriter.NewWriter(p.out)
	t.Header(header)
	for _, r := range rows {
		if err := t.Append(r); err != nil {
			return err
		}
	}
	return t.Render()
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func (p *Printer) Applications(apps []models.Application) error {
	out := make([][]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, []string{
			id(a.ID), dash(a.PerformerName), dash(a.PostsEvent), dash(a.PostsTheme),
			dash(a.PerformerTalent), a.RequestedLabel(p.loc), dash(a.Status),
		})
	}
	return p.table([]string{"ID", "Performer", "Event", "Theme", "Talent", "Requested", "Status"}, out, view.EmptyApplications)
}

func (p *Printer) Bookings(list []models.Booking, empty string) error {
	out := make([][]string, 0, len(list))
	for _, b := range list {
		day := b.StartDate
		if t, ok := b.Day(p.loc); ok {
			day = t.Format("Jan 2, 2006")
		}
		out = append(out, []string{
			id(b.ID), dash(b.ClientName()), dash(b.EventAndTheme()), dash(day),
			dash(b.TimeRange()), dash(b.Location()), dash(b.Status),
		})
	}
	return p.table([]string{"ID", "Client", "Event", "Date", "Time", "Location", "Status"}, out, empty)
}

func (p *Printer) BookingMetrics(m view.BookingMetrics) {
	p.Printf("Total: %d · Pending: %d · Accepted: %d · Rejected: %d\n", m.Total, m.Pending, m.Accepted, m.Rejected)
}

func (p *Printer) Unavailable(days []time.Time) {
	if len(days) == 0 {
		p.Printf("No blocked dates.\n")
		return
	}
	p.Printf("Blocked dates:\n")
	for _, d := range days {
		p.Printf("  %s\n", d.In(p.loc).Format(models.DateLayout))
	}
}

func (p *Printer) Transactions(txs []models.Transaction) error {
	out := make([][]string, 0, len(txs))
	for _, t := range txs {
		day := t.StartDate
		if ts, ok := models.ParseTimestamp(t.StartDate, p.loc); ok {
			day = ts.In(p.loc).Format(models.TimestampLayout)
		}
		out = append(out, []string{
			id(t.ID), dash(t.TransactionType), t.AmountLabel(), dash(day), t.StatusBadge() + " " + dash(t.Status),
		})
	}
	return p.table([]string{"ID", "Type", "Amount", "Date", "Status"}, out, view.EmptyTransactions)
}

// Report prints the counters and one sparkline row per trend series.
func (p *Printer) Report(rep view.Report, width int) error {
	p.Printf("Users: %d (today %d)\n", rep.TotalUsers, rep.UsersCreatedToday)
	p.Printf("Bookings: %d (today %d)\n", rep.TotalBookings, rep.BookingsToday)
	p.Printf("Approval rate: %s · Cancellation rate: %s\n", rep.ApprovalRate, rep.CancellationRate)
	if rep.Mismatch {
		p.Printf("Some series were incomplete and were padded.\n")
	}

	out := make([][]string, 0, len(rep.Series))
	for _, s := range rep.Series {
		out = append(out, []string{s.Label, view.Sparkline(s.Values, width), strconv.FormatInt(s.Latest, 10)})
	}
	if len(rep.Labels) > 0 {
		p.Printf("Trends %s to %s\n", rep.Labels[0], rep.Labels[len(rep.Labels)-1])
	}
	return p.table([]string{"Series", "Trend", "Latest"}, out, view.EmptyReport)
}

func (p *Printer) Session(sess *models.Session, expires time.Time, hasExpiry bool) {
	p.Printf("%s\n", sess.DisplayName())
	if sess.User != nil {
		p.Printf("ID: %d\nRole: %s\n", sess.User.ID, dash(sess.User.Role))
		if sess.User.Email != "" {
			p.Printf("Email: %s\n", sess.User.Email)
		}
	}
	if hasExpiry {
		p.Printf("Token expires: %s\n", expires.In(p.loc).Format(models.TimestampLayout))
	}
}
