package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"talento/internal/models"
	"talento/internal/shell"
	"talento/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	data := callback.Data
	c := b.chatFor(callback.Message.Chat.ID)

	zerolog.Ctx(ctx).Debug().
		Int64("user_id", callback.From.ID).
		Str("data", data).
		Msg("Handling callback query")

	// answer first so the client stops the spinner
	if err := b.tgService.AnswerCallback(callback.ID, ""); err != nil {
		b.logger.Debug().Err(err).Msg("Failed to answer callback")
	}

	if data == "noop" {
		return
	}

	// a button from an older message may outlive the session
	if _, ok := b.sessions.Current(ctx, c.slot); !ok {
		c.unmount()
		b.sendMessage(c.id, loginHint)
		return
	}

	key, arg, _ := strings.Cut(data, ":")
	switch key {
	case "nav":
		if route, ok := shell.RouteForCommand(arg); ok {
			if route == shell.RouteManageBooking {
				b.sendMessage(c.id, "Usage: /bookings <performer id>")
				return
			}
			b.openRoute(ctx, c, route, "")
		}

	case "sidebar":
		open := b.shell.ToggleSidebar(c.slot)
		if c.mountedRoute() == shell.RouteReports {
			b.renderCurrent(c, true)
			return
		}
		kb := menuKeyboard(open)
		if _, err := b.tgService.EditMessage(c.id, callback.Message.MessageID, callback.Message.Text, &kb); err != nil {
			b.logger.Debug().Err(err).Msg("Failed to redraw menu")
		}

	case "logout":
		b.handleLogout(ctx, c)

	case "refresh":
		b.handleRefresh(ctx, c)

	case "page":
		if n, err := strconv.Atoi(arg); err == nil {
			c.mu.Lock()
			c.page = n
			c.mu.Unlock()
			b.renderCurrent(c, true)
		}

	case "tab", "mtab":
		n, err := strconv.Atoi(arg)
		if err != nil || n < int(models.PartitionPending) || n > int(models.PartitionDeclined) {
			return
		}
		c.mu.Lock()
		c.tab = models.Partition(n)
		c.page = 0
		c.mu.Unlock()
		b.renderCurrent(c, true)

	case "approve", "reject":
		b.handleApplicationAction(ctx, c, key, arg)

	case "accept", "decline":
		b.handleBookingAction(ctx, c, key, arg)

	case "view", "mview":
		b.handleViewDetail(c, key, arg)

	case "close":
		c.mu.Lock()
		booking := c.booking
		c.mu.Unlock()
		if booking != nil {
			booking.CloseDetail()
		}
		b.renderCurrent(c, false)

	case "cal":
		b.handleCalendar(c, callback.Message.MessageID, arg)

	case "day":
		b.handleDaySelected(c, arg)

	case "day_confirm":
		b.handleDayConfirm(ctx, c)

	case "day_cancel":
		c.mu.Lock()
		booking := c.booking
		c.mu.Unlock()
		if booking != nil {
			booking.CancelDay()
		}
		b.sendMessage(c.id, "Cancelled.")

	case "export":
		b.handleExport(ctx, c, arg)

	default:
		b.logger.Warn().Str("data", data).Msg("Unknown callback")
	}
}

func parseID(arg string) (int64, bool) {
	id, err := strconv.ParseInt(arg, 10, 64)
	return id, err == nil && id > 0
}

func (b *Bot) handleApplicationAction(ctx context.Context, c *chat, action, arg string) {
	id, ok := parseID(arg)
	c.mu.Lock()
	apps := c.apps
	c.mu.Unlock()
	if !ok || apps == nil {
		return
	}

	var err error
	if action == "approve" {
		err = apps.Approve(ctx, id)
	} else {
		err = apps.Reject(ctx, id)
	}
	b.metrics.action(action, err)
	if err == nil {
		b.renderCurrent(c, true)
	}
}

func (b *Bot) handleBookingAction(ctx context.Context, c *chat, action, arg string) {
	id, ok := parseID(arg)
	c.mu.Lock()
	booking := c.booking
	c.mu.Unlock()
	if !ok || booking == nil {
		return
	}

	var err error
	if action == "accept" {
		err = booking.Accept(ctx, id)
	} else {
		err = booking.Decline(ctx, id)
	}
	b.metrics.action(action, err)
	if err == nil {
		b.renderCurrent(c, true)
	}
}

func (b *Bot) handleViewDetail(c *chat, key, arg string) {
	id, ok := parseID(arg)
	if !ok {
		return
	}
	c.mu.Lock()
	booking, manage := c.booking, c.manage
	c.mu.Unlock()

	var (
		rec   models.Booking
		found bool
	)
	switch {
	case key == "view" && booking != nil:
		rec, found = booking.ViewDetail(id)
	case key == "mview" && manage != nil:
		rec, found = manage.ViewDetail(id)
	}
	if !found {
		b.sendMessage(c.id, "Booking not found.")
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(button("⬅️ Back", "close")))
	if key == "view" && models.PartitionOf(rec.Status) == models.PartitionPending {
		kb.InlineKeyboard = append([][]tgbotapi.InlineKeyboardButton{{
			button("✅ Accept", "accept:"+arg),
			button("❌ Decline", "decline:"+arg),
		}}, kb.InlineKeyboard...)
	}
	if _, err := b.tgService.SendWithInlineKeyboard(c.id, renderBookingDetail(rec, b.loc), kb); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to send booking detail")
	}
}

func (b *Bot) handleCalendar(c *chat, messageID int, arg string) {
	c.mu.Lock()
	booking := c.booking
	c.mu.Unlock()
	if booking == nil {
		return
	}

	month, err := time.ParseInLocation(monthLayout, arg, b.loc)
	if err != nil {
		month = time.Now().In(b.loc)
	}
	kb := calendarKeyboard(month, booking.IsUnavailable, booking.HasAcceptedOn)
	text := "*Set unavailable dates*\nDays marked ✖ are already blocked, ✔ have an accepted booking."
	if _, err := b.tgService.EditMessage(c.id, messageID, text, &kb); err != nil {
		if _, err := b.tgService.SendWithInlineKeyboard(c.id, text, kb); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to send calendar")
		}
	}
}

func (b *Bot) handleDaySelected(c *chat, arg string) {
	c.mu.Lock()
	booking := c.booking
	c.mu.Unlock()
	if booking == nil {
		return
	}
	day, err := time.ParseInLocation(models.DateLayout, arg, b.loc)
	if err != nil {
		return
	}
	day = booking.SelectDay(day)

	text := "Mark *" + day.Format("Monday, Jan 2, 2006") + "* as unavailable?"
	if _, err := b.tgService.SendWithInlineKeyboard(c.id, text, confirmKeyboard()); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to send confirmation")
	}
}

func (b *Bot) handleDayConfirm(ctx context.Context, c *chat) {
	c.mu.Lock()
	booking := c.booking
	c.mu.Unlock()
	if booking == nil {
		return
	}
	err := booking.ConfirmDay(ctx)
	if errors.Is(err, view.ErrNoPendingDay) {
		b.sendMessage(c.id, "Select a day on the calendar first.")
		return
	}
	b.metrics.action("block_date", err)
}
