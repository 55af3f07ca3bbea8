package bot

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"talento/internal/config"
	"talento/internal/domain"
	"talento/internal/export"
	"talento/internal/models"
	"talento/internal/realtime"
	"talento/internal/session"
	"talento/internal/shell"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Bot renders the dashboard views into Telegram chats. Every chat is one
// session slot with at most one mounted view.
type Bot struct {
	tgService  domain.TelegramService
	config     *config.Config
	sessions   domain.SessionManager
	backend    domain.Backend
	shell      *shell.Shell
	subscriber realtime.Subscriber
	exporter   *export.Exporter
	loc        *time.Location
	metrics    *Metrics
	logger     *zerolog.Logger

	mu    sync.Mutex
	chats map[int64]*chat
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	sessions domain.SessionManager,
	backend domain.Backend,
	frame *shell.Shell,
	subscriber realtime.Subscriber,
	exporter *export.Exporter,
	metrics *Metrics,
	logger *zerolog.Logger,
) (*Bot, error) {
	if tgService == nil {
		return nil, errors.New("telegram service is required")
	}
	if sessions == nil || backend == nil {
		return nil, errors.New("session manager and backend are required")
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}
	if frame == nil {
		frame = shell.New(sessions, logger)
	}

	tz := ""
	if config != nil {
		tz = config.App.Timezone
	}

	return &Bot{
		tgService:  tgService,
		config:     config,
		sessions:   sessions,
		backend:    backend,
		shell:      frame,
		subscriber: subscriber,
		exporter:   exporter,
		loc:        models.LoadLocation(tz),
		metrics:    metrics,
		logger:     logger,
		chats:      make(map[int64]*chat),
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			b.unmountAll()
			return
		case update, ok := <-updates:
			if !ok {
				b.unmountAll()
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func slotOf(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	var userID, chatID int64
	switch {
	case update.Message != nil && update.Message.From != nil:
		userID, chatID = update.Message.From.ID, update.Message.Chat.ID
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		userID, chatID = update.CallbackQuery.From.ID, update.CallbackQuery.Message.Chat.ID
	}
	if userID == 0 || chatID == 0 {
		return
	}

	updateCtx, cancel := context.WithTimeout(ctx, b.updateTimeout())
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Int64("chat_id", chatID).Logger()
	updateCtx = l.WithContext(updateCtx)
	updateCtx = session.WithSlot(updateCtx, slotOf(chatID))

	b.withRecovery(func() {
		if !b.allow(updateCtx, userID, chatID, update.Message != nil) {
			return
		}

		if update.CallbackQuery != nil {
			b.metrics.incCallback()
			b.handleCallbackQuery(updateCtx, update.CallbackQuery)
			return
		}

		b.metrics.incMessage()
		b.handleMessage(updateCtx, update.Message)
	})
}

// updateTimeout leaves room for the backend timeout plus the Telegram reply.
func (b *Bot) updateTimeout() time.Duration {
	timeout := models.DefaultRequestTimeout
	if b.config != nil && b.config.Backend.TimeoutSeconds > 0 {
		timeout = b.config.Backend.TimeoutSeconds
	}
	return time.Duration(2*timeout) * time.Second
}

func (b *Bot) sendMessage(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendMarkdown(chatID int64, text string) {
	if _, err := b.tgService.SendMarkdown(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}
