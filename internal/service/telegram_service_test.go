package service

import (
	"errors"
	"testing"

	"talento/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockTelegramSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockTelegramSender) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)
	return args.Get(0).(tgbotapi.UpdatesChannel)
}

func (m *mockTelegramSender) GetSelf() tgbotapi.User {
	args := m.Called()
	return args.Get(0).(tgbotapi.User)
}

func (m *mockTelegramSender) StopReceivingUpdates() {
	m.Called()
}

func TestTelegramService(t *testing.T) {
	mockSender := new(mockTelegramSender)
	svc := NewTelegramService(mockSender)

	t.Run("SendMessage", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.Text == "hello" && msg.ChatID == 123 && msg.ParseMode == ""
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMessage(123, "hello")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendMarkdown", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ParseMode == models.ParseModeMarkdown
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendMarkdown(123, "*bold*")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendWithInlineKeyboardOmitsEmptyMarkup", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.MessageConfig)
			return ok && msg.ReplyMarkup == nil
		})).Return(tgbotapi.Message{MessageID: 7}, nil).Once()

		sent, err := svc.SendWithInlineKeyboard(123, "empty", tgbotapi.InlineKeyboardMarkup{})
		assert.NoError(t, err)
		assert.Equal(t, 7, sent.MessageID)
		mockSender.AssertExpectations(t)
	})

	t.Run("EditMessageWithKeyboard", func(t *testing.T) {
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Accept", "accept:1"),
		))
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.EditMessageTextConfig)
			return ok && msg.MessageID == 55 && msg.ReplyMarkup != nil
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.EditMessage(123, 55, "list", &kb)
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("EditMessageWithoutKeyboard", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			msg, ok := c.(tgbotapi.EditMessageTextConfig)
			return ok && msg.ReplyMarkup == nil
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.EditMessage(123, 55, "list", nil)
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("SendDocument", func(t *testing.T) {
		mockSender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			doc, ok := c.(tgbotapi.DocumentConfig)
			return ok && doc.Caption == "Summary report" && doc.File == tgbotapi.FilePath("/tmp/report.xlsx")
		})).Return(tgbotapi.Message{}, nil).Once()

		_, err := svc.SendDocument(123, "/tmp/report.xlsx", "Summary report")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("AnswerCallback", func(t *testing.T) {
		mockSender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			_, ok := c.(tgbotapi.CallbackConfig)
			return ok
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		err := svc.AnswerCallback("cb123", "ok")
		assert.NoError(t, err)
		mockSender.AssertExpectations(t)
	})

	t.Run("AnswerCallbackError", func(t *testing.T) {
		mockSender.On("Request", mock.Anything).
			Return((*tgbotapi.APIResponse)(nil), errors.New("query is too old")).Once()

		err := svc.AnswerCallback("cb124", "")
		assert.Error(t, err)
	})
}
