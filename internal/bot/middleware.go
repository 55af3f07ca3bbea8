package bot

import (
	"context"
	"time"

	"talento/internal/models"
)

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			if b.metrics != nil {
				b.metrics.ErrorsTotal.Inc()
			}
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allow applies the per-user message rate limit. A failing limiter lets the
// update through.
func (b *Bot) allow(ctx context.Context, userID, chatID int64, notify bool) bool {
	limit, window := models.RateLimitMessages, models.RateLimitWindow
	if b.config != nil {
		limit, window = b.config.Bot.RateLimitMessages, b.config.Bot.RateLimitWindow
	}
	if limit <= 0 || window <= 0 {
		return true
	}

	allowed, err := b.sessions.CheckRateLimit(ctx, userID, limit, time.Duration(window)*time.Second)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	if !allowed {
		b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
		if b.metrics != nil {
			b.metrics.RateLimited.Inc()
		}
		if notify {
			b.sendMessage(chatID, "⚠️ You are sending messages too quickly. Please wait a moment.")
		}
		return false
	}
	return true
}
