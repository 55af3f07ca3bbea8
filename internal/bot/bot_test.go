package bot

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"talento/internal/backend"
	"talento/internal/models"
	"talento/internal/realtime"
	"talento/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBotStart(t *testing.T) {
	h := newHarness(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.bot.Start(ctx)
		close(done)
	}()

	h.tg.updatesChan <- command(testChat, "/start")

	assert.Eventually(t, func() bool { return h.tg.contains("Welcome Guest!") }, time.Second, 10*time.Millisecond)
	cancel()
	<-done
}

func TestNewBotRequiresDependencies(t *testing.T) {
	_, err := NewBot(nil, nil, nil, nil, nil, nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	h.tg.mu.Lock()
	requests := append([]tgbotapi.Chattable(nil), h.tg.requests...)
	h.tg.mu.Unlock()
	require.NotEmpty(t, requests)
	_, deleted := requests[0].(tgbotapi.DeleteMessageConfig)
	assert.True(t, deleted, "login message carrying the password is deleted")

	menu := h.tg.last()
	assert.Equal(t, "list", menu.kind)
	assert.Contains(t, menu.text, "Welcome admin Ana!")
	assert.True(t, hasButton(menu.markup, "nav:reports"))
	assert.True(t, hasButton(menu.markup, "logout"))

	h.send(command(testChat, "/whoami"))
	assert.Contains(t, h.tg.last().text, "Role: admin")
}

func TestLoginUsage(t *testing.T) {
	h := newHarness(t, nil)
	h.send(command(testChat, "/login only-email"))

	assert.Equal(t, "Usage: /login <email> <password>", h.tg.last().text)
	assert.Zero(t, h.backend.called("Login"))
}

func TestLoginFailureShowsBackendMessage(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.loginErr = &backend.HTTPError{Status: 401, Message: "Invalid credentials"}

	h.send(command(testChat, "/login ana@talento.ph wrong"))

	assert.Equal(t, "⚠️ Invalid credentials", h.tg.last().text)
	_, ok := h.sessions.Current(context.Background(), slotOf(testChat))
	assert.False(t, ok)
}

func TestProtectedRouteRedirectsWithoutSession(t *testing.T) {
	h := newHarness(t, nil)

	h.send(command(testChat, "/requests"))

	assert.Equal(t, loginHint, h.tg.last().text)
	assert.Zero(t, h.backend.called("GetPortfolio"))
	assert.False(t, h.hub.Listening("bookings"))
}

func TestCallbackWithoutSession(t *testing.T) {
	h := newHarness(t, nil)

	h.send(callback(testChat, "accept:1"))

	assert.Equal(t, loginHint, h.tg.last().text)
	assert.Zero(t, h.backend.called("AcceptBooking"))
}

func TestUnknownCommand(t *testing.T) {
	h := newHarness(t, nil)
	h.send(command(testChat, "/dance"))
	assert.Contains(t, h.tg.last().text, "Unknown command")
}

func pendingBooking(id int64, name string) models.Booking {
	return models.Booking{
		ID:          id,
		Status:      models.StatusPending,
		PerformerID: 44,
		Client:      &models.Client{Name: name, Lastname: "Cruz"},
		EventName:   "Birthday",
		StartDate:   "2024-10-12",
		StartTime:   "15:00:00",
		EndTime:     "17:00:00",
	}
}

func TestBookingAcceptMovesRecord(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.pending = []models.Booking{pendingBooking(1, "Maria")}
	h.login(t)

	h.send(command(testChat, "/requests"))
	list := h.tg.last()
	require.Equal(t, "list", list.kind)
	assert.Contains(t, list.text, "Maria Cruz")
	assert.Contains(t, list.text, "3:00 PM to 5:00 PM")
	assert.True(t, hasButton(list.markup, "accept:1"))
	assert.True(t, hasButton(list.markup, "decline:1"))

	h.send(callback(testChat, "accept:1"))

	assert.Equal(t, []int64{1}, h.backend.acceptedIDs)
	assert.True(t, h.tg.contains("✅ Booking accepted successfully!"))

	edit := h.tg.last()
	assert.Equal(t, "edit", edit.kind)
	assert.Equal(t, list.messageID, edit.messageID)
	assert.Contains(t, edit.text, view.EmptyPendingBookings)

	c := h.bot.chatFor(testChat)
	require.NotNil(t, c.booking)
	assert.Empty(t, c.booking.Pending())
	require.Len(t, c.booking.Accepted(), 1)
	assert.Equal(t, models.LabelAccepted, c.booking.Accepted()[0].Status)
	// accept never re-fetches
	assert.Equal(t, 1, h.backend.called("ListPendingBookings"))
}

func TestBookingAcceptFailureKeepsRecord(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.pending = []models.Booking{pendingBooking(1, "Maria")}
	h.backend.acceptErr = &backend.HTTPError{Status: 422, Message: "Booking already processed"}
	h.login(t)
	h.send(command(testChat, "/requests"))

	h.send(callback(testChat, "accept:1"))

	assert.True(t, h.tg.contains("⚠️ Error: Booking already processed"))
	c := h.bot.chatFor(testChat)
	require.Len(t, c.booking.Pending(), 1)
	assert.Empty(t, c.booking.Accepted())
}

func TestBookingTabsAndDetail(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.pending = []models.Booking{pendingBooking(1, "Maria")}
	h.backend.declined = []models.Booking{{ID: 2, Status: models.StatusDeclined, Client: &models.Client{Name: "Jose"}}}
	h.login(t)
	h.send(command(testChat, "/requests"))

	h.send(callback(testChat, "tab:2"))
	edit := h.tg.last()
	assert.Equal(t, "edit", edit.kind)
	assert.Contains(t, edit.text, "Declined")
	assert.Contains(t, edit.text, "Jose")
	assert.False(t, hasButton(edit.markup, "accept:2"))

	h.send(callback(testChat, "view:1"))
	detail := h.tg.last()
	assert.Contains(t, detail.text, "*Booking #1*")
	assert.True(t, hasButton(detail.markup, "accept:1"))
	sel, ok := h.bot.chatFor(testChat).booking.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), sel.ID)

	h.send(callback(testChat, "view:404"))
	assert.Equal(t, "Booking not found.", h.tg.last().text)
}

func TestRealtimePushRerendersList(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/requests"))
	list := h.tg.last()
	assert.Contains(t, list.text, view.EmptyPendingBookings)

	body, err := realtime.EncodeFrame(`App\Events\BookingUpdated`, map[string]any{
		"booking": map[string]any{
			"id":           9,
			"status":       "pending",
			"performer_id": 44,
			"client":       map[string]any{"name": "Lea", "lastname": "Reyes"},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return h.transport.push("bookings", body) }, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		last := h.tg.last()
		return last.kind == "edit" && last.messageID == list.messageID && strings.Contains(last.text, "Lea Reyes")
	}, time.Second, 10*time.Millisecond)
}

func TestPushForOtherPerformerIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/requests"))
	before := len(h.tg.messages())

	body, err := realtime.EncodeFrame("BookingUpdated", map[string]any{
		"booking": map[string]any{"id": 10, "status": "pending", "performer_id": 99},
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return h.transport.push("bookings", body) }, time.Second, 10*time.Millisecond)

	assert.Empty(t, h.bot.chatFor(testChat).booking.Pending())
	// the view still reports the change, the list is redrawn unchanged
	assert.GreaterOrEqual(t, len(h.tg.messages()), before)
}

func TestLogoutReleasesSubscription(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/requests"))
	require.Eventually(t, func() bool { return h.hub.Listening("bookings") }, time.Second, 10*time.Millisecond)

	h.send(command(testChat, "/logout"))

	assert.Equal(t, "You have been logged out.", h.tg.last().text)
	_, ok := h.sessions.Current(context.Background(), slotOf(testChat))
	assert.False(t, ok)
	assert.Eventually(t, func() bool { return !h.hub.Listening("bookings") }, time.Second, 10*time.Millisecond)

	h.send(command(testChat, "/requests"))
	assert.Equal(t, loginHint, h.tg.last().text)
	assert.Equal(t, 1, h.backend.called("GetPortfolio"))
}

func TestNavigatingAwayUnmountsBookingView(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/requests"))
	require.Eventually(t, func() bool { return h.hub.Listening("bookings") }, time.Second, 10*time.Millisecond)

	h.send(command(testChat, "/transactions"))

	assert.Eventually(t, func() bool { return !h.hub.Listening("bookings") }, time.Second, 10*time.Millisecond)
	assert.Contains(t, h.tg.last().text, view.EmptyTransactions)
}

func TestCalendarConfirmSavesDay(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/requests"))

	h.send(callback(testChat, "cal:2024-10"))
	cal := h.tg.last()
	assert.Equal(t, "edit", cal.kind)
	assert.True(t, hasButton(cal.markup, "day:2024-10-05"))

	h.send(callback(testChat, "day:2024-10-05"))
	confirm := h.tg.last()
	assert.Contains(t, confirm.text, "Saturday, Oct 5, 2024")
	assert.True(t, hasButton(confirm.markup, "day_confirm"))
	assert.Zero(t, h.backend.called("AddUnavailableDates"))

	h.send(callback(testChat, "day_confirm"))

	require.Len(t, h.backend.blocked, 1)
	manila := models.LoadLocation(models.DefaultTimezone)
	assert.True(t, h.backend.blocked[0].Equal(time.Date(2024, 10, 5, 0, 0, 0, 0, manila)))
	assert.True(t, h.tg.contains("✅ Unavailable date saved successfully!"))
	assert.True(t, h.bot.chatFor(testChat).booking.IsUnavailable(time.Date(2024, 10, 5, 12, 0, 0, 0, manila)))
}

func TestCalendarMarksAcceptedDays(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.accepted = []models.Booking{{ID: 3, Status: "accepted", StartDate: "2024-10-05 23:30:00"}}
	h.login(t)
	h.send(command(testChat, "/requests"))

	h.send(callback(testChat, "cal:2024-10"))
	cal := h.tg.last()
	assert.Equal(t, "✔5", buttonLabel(cal.markup, "day:2024-10-05"))
	assert.Equal(t, "6", buttonLabel(cal.markup, "day:2024-10-06"))
	assert.Equal(t, "4", buttonLabel(cal.markup, "day:2024-10-04"))
}

func TestCalendarCancelIssuesNoRequest(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/requests"))

	h.send(callback(testChat, "day:2024-10-05"))
	h.send(callback(testChat, "day_cancel"))
	h.send(callback(testChat, "day_confirm"))

	assert.Zero(t, h.backend.called("AddUnavailableDates"))
	assert.True(t, h.tg.contains("Cancelled."))
	assert.Equal(t, "Select a day on the calendar first.", h.tg.last().text)
}

func TestApplicationsApprove(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.apps = []models.Application{{ID: 3, PerformerName: "DJ_Kool", Status: "pending"}}
	h.login(t)

	h.send(command(testChat, "/applications"))
	list := h.tg.last()
	assert.Contains(t, list.text, `DJ\_Kool`)
	assert.True(t, hasButton(list.markup, "approve:3"))

	h.send(callback(testChat, "approve:3"))

	assert.Equal(t, []int64{3}, h.backend.approvedIDs)
	assert.True(t, h.tg.contains("✅ Application approved."))
	assert.Equal(t, 2, h.backend.called("ListApplications"))
}

func series(v int64) []int64 {
	out := make([]int64, models.ReportDays)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestReportsRenderAndSidebar(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.summary = &models.SummaryReport{
		TotalUsers:        series(120),
		UsersCreatedToday: series(3),
		TotalBookings:     series(40),
		BookingsToday:     series(2),
		CancelledBookings: series(0),
		ApprovedBookings:  series(40),
	}
	h.login(t)

	h.send(command(testChat, "/reports"))
	rep := h.tg.last()
	assert.Contains(t, rep.text, "Approval rate: 100.00%")
	assert.Contains(t, rep.text, "Cancellation rate: 0.00%")
	assert.True(t, hasButton(rep.markup, "export:report"))
	assert.True(t, h.bot.shell.SidebarOpen(slotOf(testChat)))

	h.send(callback(testChat, "sidebar"))

	assert.False(t, h.bot.shell.SidebarOpen(slotOf(testChat)))
	assert.Equal(t, "edit", h.tg.last().kind)
}

func TestReportsFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)

	h.send(command(testChat, "/reports"))

	assert.True(t, h.tg.contains("⚠️ Failed to load summary report."))
	assert.Equal(t, view.EmptyReport, h.tg.last().text)
}

func TestExportReportSendsDocument(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.summary = &models.SummaryReport{TotalBookings: series(5), ApprovedBookings: series(4)}
	h.login(t)

	h.send(callback(testChat, "export:report"))

	doc := h.tg.last()
	require.Equal(t, "document", doc.kind)
	assert.True(t, strings.HasSuffix(doc.path, ".xlsx"))
	assert.Contains(t, doc.text, "Summary report")
	_, err := os.Stat(doc.path)
	assert.True(t, os.IsNotExist(err), "export file is removed after upload")
}

func TestExportUsage(t *testing.T) {
	h := newHarness(t, nil)
	h.login(t)
	h.send(command(testChat, "/export pdf"))
	assert.Equal(t, "Usage: /export report|transactions", h.tg.last().text)
}

func TestManageBookings(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.pending = []models.Booking{pendingBooking(1, "Maria")}
	h.backend.accepted = []models.Booking{{ID: 2, Status: models.StatusDone}}
	h.login(t)

	h.send(command(testChat, "/bookings"))
	assert.Equal(t, "Usage: /bookings <performer id>", h.tg.last().text)

	h.send(command(testChat, "/bookings 44"))
	list := h.tg.last()
	assert.Contains(t, list.text, "Total: 2")
	assert.Contains(t, list.text, "Pending: 1")
	assert.True(t, hasButton(list.markup, "mview:1"))

	h.send(callback(testChat, "mtab:1"))
	assert.True(t, hasButton(h.tg.last().markup, "mview:2"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Bot.RateLimitMessages = 1
	h := newHarness(t, cfg)

	h.send(command(testChat, "/start"))
	h.send(command(testChat, "/start"))

	assert.Contains(t, h.tg.last().text, "too quickly")
}

func TestPanicRecovered(t *testing.T) {
	h := newHarness(t, nil)
	assert.NotPanics(t, func() {
		h.bot.withRecovery(func() { panic("boom") })
	})
}
