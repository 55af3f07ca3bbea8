package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"talento/internal/models"
	"talento/internal/shell"
	"talento/internal/view"
)

const loginHint = "Please log in first: /login <email> <password>"

// openRoute runs the shell gate and mounts the view behind route.
func (b *Bot) openRoute(ctx context.Context, c *chat, route, args string) {
	frame := b.shell.Navigate(ctx, c.slot, route)
	if frame.Session == nil {
		c.unmount()
		b.sendMessage(c.id, loginHint)
		return
	}

	b.metrics.mounted(route)
	b.logger.Debug().Int64("chat_id", c.id).Str("route", route).Msg("Mounting view")

	switch route {
	case shell.RouteApplications:
		v := view.NewApplicationsView(b.backend, c.notifier, b.logger)
		c.mount(route, v, func(c *chat) { c.apps = v })
		_ = v.Mount(ctx)
		b.renderCurrent(c, false)

	case shell.RouteBookings:
		user := models.User{}
		if frame.Session.User != nil {
			user = *frame.Session.User
		}
		v := view.NewBookingView(b.backend, b.subscriber, c.notifier, user, b.loc, b.logger)
		v.OnChange(func() { b.onBookingPush(c, v) })
		c.mount(route, v, func(c *chat) { c.booking = v })
		_ = v.Mount(ctx)
		b.renderCurrent(c, false)

	case shell.RouteManageBooking:
		performerID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
		if err != nil || performerID <= 0 {
			b.sendMessage(c.id, "Usage: /bookings <performer id>")
			return
		}
		v := view.NewManageBookingView(b.backend, c.notifier, b.logger)
		c.mount(route, v, func(c *chat) { c.manage = v })
		_ = v.Mount(ctx, performerID)
		b.renderCurrent(c, false)

	case shell.RouteTransactions:
		v := view.NewTransactionsView(b.backend, c.notifier, b.logger)
		c.mount(route, v, func(c *chat) { c.txs = v })
		_ = v.Mount(ctx)
		b.renderCurrent(c, false)

	case shell.RouteReports:
		v := view.NewReportingView(b.backend, c.notifier, b.loc, b.logger)
		c.mount(route, v, func(c *chat) { c.report = v })
		_ = v.Mount(ctx)
		b.renderCurrent(c, false)

	default:
		c.unmount()
		b.sendMarkdown(c.id, fmt.Sprintf("*%s*\n\nThis page is only available on the web dashboard.", esc(frame.Title)))
	}
}

// renderCurrent draws the mounted view. edit reuses the list message.
func (b *Bot) renderCurrent(c *chat, edit bool) {
	c.mu.Lock()
	route, tab, pg := c.route, c.tab, c.page
	apps, booking, manage, txs, report := c.apps, c.booking, c.manage, c.txs, c.report
	c.mu.Unlock()

	size := b.pageSize()
	switch {
	case route == shell.RouteApplications && apps != nil:
		b.showList(c, renderApplications(apps.Applications(), pg, size, b.loc), edit)
	case route == shell.RouteBookings && booking != nil:
		b.showList(c, renderBookings(booking, tab, pg, size), edit)
	case route == shell.RouteManageBooking && manage != nil:
		b.showList(c, renderManage(manage, tab, pg, size, b.loc), edit)
	case route == shell.RouteTransactions && txs != nil:
		b.showList(c, renderTransactions(txs.Transactions(), pg, size), edit)
	case route == shell.RouteReports && report != nil:
		open := b.shell.SidebarOpen(c.slot)
		rep, ok := report.Report()
		if !ok {
			b.sendMessage(c.id, view.EmptyReport)
			return
		}
		b.showList(c, page{
			Text:     renderReport(rep, view.ChartWidth(open)),
			Keyboard: reportKeyboard(open),
		}, edit)
	}
}

// onBookingPush runs on the realtime goroutine after a merge.
func (b *Bot) onBookingPush(c *chat, v *view.BookingView) {
	c.mu.Lock()
	current := c.booking == v
	c.mu.Unlock()
	if !current {
		return
	}
	b.metrics.rendered()
	b.renderCurrent(c, true)
}
