package bot

import (
	"fmt"
	"strings"
	"time"

	"talento/internal/models"
	"talento/internal/shell"
	"talento/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// esc escapes backend text for legacy Markdown.
func esc(s string) string {
	return markdownEscaper.Replace(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func renderApplications(apps []models.Application, p, size int, loc *time.Location) page {
	params := PaginationParams{
		Page:       p,
		PageSize:   size,
		Title:      "*" + shell.Title(shell.RouteApplications) + "*",
		Empty:      view.EmptyApplications,
		PagePrefix: "page:",
	}
	return renderPaginatedList(params, len(apps), func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton
		for _, a := range apps[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("*#%d* %s\n", a.ID, esc(orDash(a.PerformerName))))
			content.WriteString(fmt.Sprintf("   🎭 %s, %s\n", esc(orDash(a.PostsEvent)), esc(orDash(a.PostsTheme))))
			content.WriteString(fmt.Sprintf("   🎤 %s\n", esc(orDash(a.PerformerTalent))))
			content.WriteString(fmt.Sprintf("   🕒 %s\n", esc(a.RequestedLabel(loc))))
			content.WriteString(fmt.Sprintf("   📌 %s\n\n", esc(orDash(a.Status))))

			keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
				button(fmt.Sprintf("✅ Approve #%d", a.ID), fmt.Sprintf("approve:%d", a.ID)),
				button(fmt.Sprintf("❌ Reject #%d", a.ID), fmt.Sprintf("reject:%d", a.ID)),
			})
		}
		return content.String(), keyboard
	})
}

var partitionTitles = [...]string{"Pending", "Accepted", "Declined"}

var partitionEmpty = [...]string{view.EmptyPendingBookings, view.EmptyAcceptedBookings, view.EmptyDeclinedBookings}

func bookingTabs(v *view.BookingView, active models.Partition) []tgbotapi.InlineKeyboardButton {
	row := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for p := models.PartitionPending; p <= models.PartitionDeclined; p++ {
		label := fmt.Sprintf("%s (%d)", partitionTitles[p], len(v.List(p)))
		if p == active {
			label = "• " + label
		}
		row = append(row, button(label, fmt.Sprintf("tab:%d", p)))
	}
	return row
}

func renderBookings(v *view.BookingView, tab models.Partition, p, size int) page {
	list := v.List(tab)
	params := PaginationParams{
		Page:       p,
		PageSize:   size,
		Title:      fmt.Sprintf("*%s* · %s", shell.Title(shell.RouteBookings), partitionTitles[tab]),
		Empty:      partitionEmpty[tab],
		PagePrefix: "page:",
		Header:     [][]tgbotapi.InlineKeyboardButton{bookingTabs(v, tab)},
		Footer: [][]tgbotapi.InlineKeyboardButton{{
			button("📅 Calendar", "cal:"+time.Now().In(v.Location()).Format(monthLayout)),
			button("🔄 Refresh", "refresh"),
		}},
	}
	return renderPaginatedList(params, len(list), func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton
		for _, bk := range list[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("*#%d* %s\n", bk.ID, esc(orDash(bk.ClientName()))))
			content.WriteString(fmt.Sprintf("   🎭 %s\n", esc(orDash(bk.EventAndTheme()))))
			content.WriteString(fmt.Sprintf("   📅 %s %s\n", esc(dayLabel(bk, v.Location())), esc(bk.TimeRange())))
			content.WriteString(fmt.Sprintf("   📌 %s\n\n", esc(orDash(bk.Status))))

			row := []tgbotapi.InlineKeyboardButton{button(fmt.Sprintf("👁 #%d", bk.ID), fmt.Sprintf("view:%d", bk.ID))}
			if tab == models.PartitionPending {
				row = append(row,
					button("✅ Accept", fmt.Sprintf("accept:%d", bk.ID)),
					button("❌ Decline", fmt.Sprintf("decline:%d", bk.ID)),
				)
			}
			keyboard = append(keyboard, row)
		}
		return content.String(), keyboard
	})
}

func dayLabel(b models.Booking, loc *time.Location) string {
	day, ok := b.Day(loc)
	if !ok {
		return b.StartDate
	}
	return day.In(loc).Format("Jan 02, 2006")
}

func renderBookingDetail(b models.Booking, loc *time.Location) string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("*Booking #%d*\n\n", b.ID))
	s.WriteString(fmt.Sprintf("👤 Client: %s\n", esc(orDash(b.ClientName()))))
	s.WriteString(fmt.Sprintf("🎭 Event: %s\n", esc(orDash(b.EventName))))
	s.WriteString(fmt.Sprintf("🎨 Theme: %s\n", esc(orDash(b.ThemeName))))
	s.WriteString(fmt.Sprintf("📅 Date: %s\n", esc(orDash(dayLabel(b, loc)))))
	s.WriteString(fmt.Sprintf("🕒 Time: %s\n", esc(orDash(b.TimeRange()))))
	s.WriteString(fmt.Sprintf("📍 Location: %s\n", esc(orDash(b.Location()))))
	s.WriteString(fmt.Sprintf("📝 Notes: %s\n", esc(orDash(b.Notes))))
	s.WriteString(fmt.Sprintf("📌 Status: %s", esc(orDash(b.Status))))
	return s.String()
}

func renderTransactions(txs []models.Transaction, p, size int) page {
	params := PaginationParams{
		Page:       p,
		PageSize:   size,
		Title:      "*" + shell.Title(shell.RouteTransactions) + "*",
		Empty:      view.EmptyTransactions,
		PagePrefix: "page:",
		Footer: [][]tgbotapi.InlineKeyboardButton{{
			button("📥 Export to Excel", "export:transactions"),
		}},
	}
	return renderPaginatedList(params, len(txs), func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		for _, t := range txs[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("%s *#%d* %s\n", t.StatusBadge(), t.ID, esc(orDash(t.TransactionType))))
			content.WriteString(fmt.Sprintf("   💰 %s\n", esc(t.AmountLabel())))
			content.WriteString(fmt.Sprintf("   📅 %s · %s\n\n", esc(orDash(t.StartDate)), esc(orDash(t.Status))))
		}
		return content.String(), nil
	})
}

// manage sections share one paginated message; the tab picks the list.
var manageTitles = [...]string{"Pending", "History", "Rejected"}

var manageEmpty = [...]string{view.EmptyManagePending, view.EmptyBookingHistory, view.EmptyRejectedBookings}

func renderManage(v *view.ManageBookingView, tab models.Partition, p, size int, loc *time.Location) page {
	var list []models.Booking
	switch tab {
	case models.PartitionAccepted:
		list = v.History()
	case models.PartitionDeclined:
		list = v.Rejected()
	default:
		tab = models.PartitionPending
		list = v.Pending()
	}

	m := v.Metrics()
	title := fmt.Sprintf("*%s* · performer #%d\n\nTotal: %d · Pending: %d · Accepted: %d · Rejected: %d\n\n_%s_",
		shell.Title(shell.RouteManageBooking), v.PerformerID(), m.Total, m.Pending, m.Accepted, m.Rejected, manageTitles[tab])

	tabs := make([]tgbotapi.InlineKeyboardButton, 0, 3)
	for i, t := range manageTitles {
		label := t
		if models.Partition(i) == tab {
			label = "• " + t
		}
		tabs = append(tabs, button(label, fmt.Sprintf("mtab:%d", i)))
	}

	params := PaginationParams{
		Page:       p,
		PageSize:   size,
		Title:      title,
		Empty:      manageEmpty[tab],
		PagePrefix: "page:",
		Header:     [][]tgbotapi.InlineKeyboardButton{tabs},
	}
	return renderPaginatedList(params, len(list), func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton) {
		var content strings.Builder
		var keyboard [][]tgbotapi.InlineKeyboardButton
		for _, bk := range list[startIdx:endIdx] {
			content.WriteString(fmt.Sprintf("*#%d* %s · %s\n", bk.ID, esc(orDash(bk.ClientName())), esc(orDash(bk.Status))))
			content.WriteString(fmt.Sprintf("   📅 %s %s\n\n", esc(dayLabel(bk, loc)), esc(bk.TimeRange())))
			keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
				button(fmt.Sprintf("👁 #%d", bk.ID), fmt.Sprintf("mview:%d", bk.ID)),
			})
		}
		return content.String(), keyboard
	})
}

func renderReport(rep view.Report, width int) string {
	var s strings.Builder
	s.WriteString("*" + shell.Title(shell.RouteReports) + "*\n\n")
	s.WriteString(fmt.Sprintf("👥 Total users: %d (+%d today)\n", rep.TotalUsers, rep.UsersCreatedToday))
	s.WriteString(fmt.Sprintf("📚 Total bookings: %d (+%d today)\n", rep.TotalBookings, rep.BookingsToday))
	s.WriteString(fmt.Sprintf("✅ Approval rate: %s\n", rep.ApprovalRate))
	s.WriteString(fmt.Sprintf("❌ Cancellation rate: %s\n\n", rep.CancellationRate))

	peak := rep.ApprovedBookings
	if rep.CancelledBookings > peak {
		peak = rep.CancelledBookings
	}
	s.WriteString("_Booking Breakdown_\n```\n")
	s.WriteString(fmt.Sprintf("Approved  %s %d\n", view.Bar(rep.ApprovedBookings, peak, width), rep.ApprovedBookings))
	s.WriteString(fmt.Sprintf("Cancelled %s %d\n", view.Bar(rep.CancelledBookings, peak, width), rep.CancelledBookings))
	s.WriteString("```\n")

	if len(rep.Labels) > 0 {
		s.WriteString(fmt.Sprintf("_Trends %s to %s_\n```\n", rep.Labels[0], rep.Labels[len(rep.Labels)-1]))
		for _, sv := range rep.Series {
			s.WriteString(fmt.Sprintf("%-20s %s %d\n", sv.Label, view.Sparkline(sv.Values, width), sv.Latest))
		}
		s.WriteString("```")
	}
	if rep.Mismatch {
		s.WriteString("\n⚠️ Some series did not have 30 days of data.")
	}
	return s.String()
}

func reportKeyboard(sidebarOpen bool) tgbotapi.InlineKeyboardMarkup {
	toggle := "☰ Hide sidebar"
	if !sidebarOpen {
		toggle = "☰ Show sidebar"
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		button("📥 Export to Excel", "export:report"),
		button(toggle, "sidebar"),
	))
}

// menuKeyboard lists the navigation entries, two per row.
func menuKeyboard(sidebarOpen bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if sidebarOpen {
		var row []tgbotapi.InlineKeyboardButton
		for _, item := range shell.Navigation() {
			row = append(row, button(item.Text, "nav:"+item.Command))
			if len(row) == 2 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	toggle := "☰ Hide sidebar"
	if !sidebarOpen {
		toggle = "☰ Show sidebar"
	}
	rows = append(rows, []tgbotapi.InlineKeyboardButton{button(toggle, "sidebar"), button("🚪 Logout", "logout")})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}
