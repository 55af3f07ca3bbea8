package bot

import (
	"context"
	"fmt"
	"strings"

	"talento/internal/models"
	"talento/internal/session"
	"talento/internal/shell"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const helpText = `Talento dashboard

/login <email> <password> - sign in
/logout - sign out
/whoami - current account
/menu - navigation
/requests - booking requests
/transactions - coin transactions
/applications - performer applications
/reports - summary report
/bookings <performer id> - manage a performer's bookings
/export report|transactions - Excel export`

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	l := zerolog.Ctx(ctx)
	l.Debug().
		Int64("user_id", msg.From.ID).
		Str("username", msg.From.UserName).
		Str("command", msg.Command()).
		Msg("Handling message")

	c := b.chatFor(msg.Chat.ID)

	if !msg.IsCommand() {
		b.sendMessage(c.id, "Use /menu to navigate or /help for the list of commands.")
		return
	}

	args := strings.TrimSpace(msg.CommandArguments())
	switch cmd := strings.ToLower(msg.Command()); cmd {
	case "start", "help":
		b.handleStart(ctx, c)
	case "login":
		b.handleLogin(ctx, c, msg, args)
	case "logout":
		b.handleLogout(ctx, c)
	case "whoami":
		b.handleWhoAmI(ctx, c)
	case "menu":
		b.handleMenu(ctx, c)
	case "refresh":
		b.handleRefresh(ctx, c)
	case "export":
		b.handleExport(ctx, c, args)
	default:
		route, ok := shell.RouteForCommand(cmd)
		if !ok {
			b.sendMessage(c.id, "Unknown command. Send /help for the list of commands.")
			return
		}
		b.openRoute(ctx, c, route, args)
	}
}

func (b *Bot) handleStart(ctx context.Context, c *chat) {
	sess, _ := b.sessions.Current(ctx, c.slot)
	b.sendMessage(c.id, shell.Greeting(sess)+"\n\n"+helpText)
}

func (b *Bot) handleLogin(ctx context.Context, c *chat, msg *tgbotapi.Message, args string) {
	// the command carries a password
	if _, err := b.tgService.Request(tgbotapi.NewDeleteMessage(c.id, msg.MessageID)); err != nil {
		b.logger.Debug().Err(err).Int64("chat_id", c.id).Msg("Failed to delete login message")
	}

	parts := strings.Fields(args)
	if len(parts) != 2 {
		b.sendMessage(c.id, "Usage: /login <email> <password>")
		return
	}

	sess, err := b.backend.Login(ctx, parts[0], parts[1])
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", c.id).Msg("Login failed")
		b.sendMessage(c.id, b.getErrorMessage(err, "Login failed. Please check your credentials."))
		return
	}
	if err := b.sessions.Login(ctx, c.slot, sess.User, sess.Token); err != nil {
		// the in-memory session is live even when the slot could not be written
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to persist session")
	}

	c.unmount()
	b.logger.Info().Int64("chat_id", c.id).Str("role", roleOf(sess)).Msg("User logged in")
	if _, err := b.tgService.SendWithInlineKeyboard(c.id, esc(shell.Greeting(sess)), menuKeyboard(b.shell.SidebarOpen(c.slot))); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to send menu")
	}
}

func roleOf(sess *models.Session) string {
	if sess == nil || sess.User == nil {
		return ""
	}
	return sess.User.Role
}

func (b *Bot) handleLogout(ctx context.Context, c *chat) {
	c.unmount()
	if err := b.shell.Logout(ctx, c.slot); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to clear session slot")
	}
	b.sendMessage(c.id, "You have been logged out.")
}

func (b *Bot) handleWhoAmI(ctx context.Context, c *chat) {
	sess, ok := b.sessions.Current(ctx, c.slot)
	if !ok {
		b.sendMessage(c.id, "You are not logged in.")
		return
	}

	var s strings.Builder
	s.WriteString(fmt.Sprintf("*%s*\n", esc(sess.DisplayName())))
	if sess.User != nil {
		s.WriteString(fmt.Sprintf("ID: %d\n", sess.User.ID))
		s.WriteString(fmt.Sprintf("Role: %s\n", esc(orDash(sess.User.Role))))
		if sess.User.Email != "" {
			s.WriteString(fmt.Sprintf("Email: %s\n", esc(sess.User.Email)))
		}
	}
	if exp, ok := session.TokenExpiry(sess.Token); ok {
		s.WriteString(fmt.Sprintf("Token expires: %s\n", exp.In(b.loc).Format(models.TimestampLayout)))
	}
	b.sendMarkdown(c.id, strings.TrimRight(s.String(), "\n"))
}

func (b *Bot) handleMenu(ctx context.Context, c *chat) {
	sess, ok := b.sessions.Current(ctx, c.slot)
	if !ok {
		b.sendMessage(c.id, loginHint)
		return
	}
	title := fmt.Sprintf("*%s*\n%s", esc(shell.Title(b.shell.CurrentRoute(c.slot))), esc(shell.Greeting(sess)))
	if _, err := b.tgService.SendWithInlineKeyboard(c.id, title, menuKeyboard(b.shell.SidebarOpen(c.slot))); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to send menu")
	}
}

// handleRefresh re-mounts the current view; the booking view reloads in place.
func (b *Bot) handleRefresh(ctx context.Context, c *chat) {
	c.mu.Lock()
	route, booking := c.route, c.booking
	manage := c.manage
	c.mu.Unlock()

	switch {
	case route == "":
		b.sendMessage(c.id, "Nothing to refresh. Use /menu to open a page.")
	case booking != nil:
		_ = booking.Refresh(ctx)
		b.renderCurrent(c, true)
	case manage != nil:
		b.openRoute(ctx, c, route, fmt.Sprint(manage.PerformerID()))
	default:
		b.openRoute(ctx, c, route, "")
	}
}
