package domain

import (
	"context"
	"time"

	"talento/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionRepository persists one session per slot.
// GetSession returns (nil, nil) when the slot is empty.
type SessionRepository interface {
	GetSession(ctx context.Context, slot string) (*models.Session, error)
	SetSession(ctx context.Context, slot string, session *models.Session) error
	ClearSession(ctx context.Context, slot string) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// SessionManager is the identity holder every view consults.
type SessionManager interface {
	Login(ctx context.Context, slot string, user *models.User, token string) error
	Logout(ctx context.Context, slot string) error
	Current(ctx context.Context, slot string) (*models.Session, bool)
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

// Backend is the REST API the console drives.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.Session, error)

	ListApplications(ctx context.Context) ([]models.Application, error)
	ApproveApplication(ctx context.Context, id int64) error
	RejectApplication(ctx context.Context, id int64) error

	GetPortfolio(ctx context.Context, userID int64) (*models.Portfolio, error)
	ListPendingBookings(ctx context.Context, performerID int64) ([]models.Booking, error)
	ListAcceptedBookings(ctx context.Context, performerID int64) ([]models.Booking, error)
	ListDeclinedBookings(ctx context.Context, performerID int64) ([]models.Booking, error)
	AcceptBooking(ctx context.Context, id int64) error
	DeclineBooking(ctx context.Context, id int64) error

	ListUnavailableDates(ctx context.Context, performerID int64) ([]time.Time, error)
	AddUnavailableDates(ctx context.Context, performerID int64, dates []time.Time) error

	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	SummaryReport(ctx context.Context) (*models.SummaryReport, error)
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

type TelegramService interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	SendMessage(chatID int64, text string) (tgbotapi.Message, error)
	SendMarkdown(chatID int64, text string) (tgbotapi.Message, error)
	SendWithKeyboard(chatID int64, text string, keyboard tgbotapi.ReplyKeyboardMarkup) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendDocument(chatID int64, path string, caption string) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
