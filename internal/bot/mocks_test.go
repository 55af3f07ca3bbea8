package bot

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"talento/internal/backend"
	"talento/internal/config"
	"talento/internal/domain"
	"talento/internal/export"
	"talento/internal/models"
	"talento/internal/realtime"
	"talento/internal/repository"
	"talento/internal/session"
	"talento/internal/shell"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	kind      string
	chatID    int64
	messageID int
	text      string
	markup    *tgbotapi.InlineKeyboardMarkup
	path      string
}

type mockTelegramService struct {
	domain.TelegramService
	updatesChan chan tgbotapi.Update

	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	requests []tgbotapi.Chattable
}

func newMockTelegram() *mockTelegramService {
	return &mockTelegramService{updatesChan: make(chan tgbotapi.Update, 4), nextID: 100}
}

func (m *mockTelegramService) record(msg sentMessage) tgbotapi.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.messageID == 0 {
		m.nextID++
		msg.messageID = m.nextID
	}
	m.sent = append(m.sent, msg)
	return tgbotapi.Message{MessageID: msg.messageID, Chat: &tgbotapi.Chat{ID: msg.chatID}}
}

func (m *mockTelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return m.record(sentMessage{kind: "raw"}), nil
}

func (m *mockTelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, c)
	m.mu.Unlock()
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (m *mockTelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	return m.record(sentMessage{kind: "text", chatID: chatID, text: text}), nil
}

func (m *mockTelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	return m.record(sentMessage{kind: "markdown", chatID: chatID, text: text}), nil
}

func (m *mockTelegramService) SendWithInlineKeyboard(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return m.record(sentMessage{kind: "list", chatID: chatID, text: text, markup: &kb}), nil
}

func (m *mockTelegramService) EditMessage(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	return m.record(sentMessage{kind: "edit", chatID: chatID, messageID: messageID, text: text, markup: kb}), nil
}

func (m *mockTelegramService) SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error) {
	return m.record(sentMessage{kind: "document", chatID: chatID, text: caption, path: path}), nil
}

func (m *mockTelegramService) AnswerCallback(callbackID, text string) error {
	return nil
}

func (m *mockTelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return m.updatesChan
}

func (m *mockTelegramService) GetSelf() tgbotapi.User {
	return tgbotapi.User{UserName: "talento_test_bot"}
}

func (m *mockTelegramService) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *mockTelegramService) count(kind string) int {
	n := 0
	for _, s := range m.messages() {
		if s.kind == kind {
			n++
		}
	}
	return n
}

func (m *mockTelegramService) last() sentMessage {
	msgs := m.messages()
	if len(msgs) == 0 {
		return sentMessage{}
	}
	return msgs[len(msgs)-1]
}

// contains reports whether any message text contains sub.
func (m *mockTelegramService) contains(sub string) bool {
	for _, s := range m.messages() {
		if strings.Contains(s.text, sub) {
			return true
		}
	}
	return false
}

func hasButton(kb *tgbotapi.InlineKeyboardMarkup, data string) bool {
	if kb == nil {
		return false
	}
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && *btn.CallbackData == data {
				return true
			}
		}
	}
	return false
}

func buttonLabel(kb *tgbotapi.InlineKeyboardMarkup, data string) string {
	if kb == nil {
		return ""
	}
	for _, row := range kb.InlineKeyboard {
		for _, btn := range row {
			if btn.CallbackData != nil && *btn.CallbackData == data {
				return btn.Text
			}
		}
	}
	return ""
}

type stubBackend struct {
	mu    sync.Mutex
	calls []string

	login        *models.Session
	loginErr     error
	apps         []models.Application
	pending      []models.Booking
	accepted     []models.Booking
	declined     []models.Booking
	transactions []models.Transaction
	summary      *models.SummaryReport
	acceptErr    error

	acceptedIDs []int64
	approvedIDs []int64
	blocked     []time.Time
}

var _ domain.Backend = (*stubBackend)(nil)

func (s *stubBackend) record(name string) {
	s.mu.Lock()
	s.calls = append(s.calls, name)
	s.mu.Unlock()
}

func (s *stubBackend) called(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (s *stubBackend) Login(ctx context.Context, email, password string) (*models.Session, error) {
	s.record("Login")
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.login, nil
}

func (s *stubBackend) ListApplications(ctx context.Context) ([]models.Application, error) {
	s.record("ListApplications")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Application(nil), s.apps...), nil
}

func (s *stubBackend) ApproveApplication(ctx context.Context, id int64) error {
	s.record("ApproveApplication")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.approvedIDs = append(s.approvedIDs, id)
	return nil
}

func (s *stubBackend) RejectApplication(ctx context.Context, id int64) error {
	s.record("RejectApplication")
	return nil
}

func (s *stubBackend) GetPortfolio(ctx context.Context, userID int64) (*models.Portfolio, error) {
	s.record("GetPortfolio")
	return &models.Portfolio{ID: 44}, nil
}

func (s *stubBackend) ListPendingBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	s.record("ListPendingBookings")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.pending...), nil
}

func (s *stubBackend) ListAcceptedBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	s.record("ListAcceptedBookings")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.accepted...), nil
}

func (s *stubBackend) ListDeclinedBookings(ctx context.Context, performerID int64) ([]models.Booking, error) {
	s.record("ListDeclinedBookings")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Booking(nil), s.declined...), nil
}

func (s *stubBackend) AcceptBooking(ctx context.Context, id int64) error {
	s.record("AcceptBooking")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acceptErr != nil {
		return s.acceptErr
	}
	s.acceptedIDs = append(s.acceptedIDs, id)
	return nil
}

func (s *stubBackend) DeclineBooking(ctx context.Context, id int64) error {
	s.record("DeclineBooking")
	return nil
}

func (s *stubBackend) ListUnavailableDates(ctx context.Context, performerID int64) ([]time.Time, error) {
	s.record("ListUnavailableDates")
	return nil, nil
}

func (s *stubBackend) AddUnavailableDates(ctx context.Context, performerID int64, dates []time.Time) error {
	s.record("AddUnavailableDates")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked = append(s.blocked, dates...)
	return nil
}

func (s *stubBackend) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.record("ListTransactions")
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.transactions...), nil
}

func (s *stubBackend) SummaryReport(ctx context.Context) (*models.SummaryReport, error) {
	s.record("SummaryReport")
	if s.summary == nil {
		return nil, backend.ErrReportFailed
	}
	return s.summary, nil
}

// pushTransport hands the hub's deliver func to the test.
type pushTransport struct {
	mu      sync.Mutex
	deliver map[string]func([]byte)
}

func (p *pushTransport) Listen(ctx context.Context, channel string, deliver func([]byte)) error {
	p.mu.Lock()
	p.deliver[channel] = deliver
	p.mu.Unlock()
	<-ctx.Done()
	p.mu.Lock()
	delete(p.deliver, channel)
	p.mu.Unlock()
	return ctx.Err()
}

func (p *pushTransport) push(channel string, body []byte) bool {
	p.mu.Lock()
	deliver := p.deliver[channel]
	p.mu.Unlock()
	if deliver == nil {
		return false
	}
	deliver(body)
	return true
}

type harness struct {
	bot       *Bot
	tg        *mockTelegramService
	backend   *stubBackend
	sessions  *session.Service
	hub       *realtime.Hub
	transport *pushTransport
}

func testConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Timezone: models.DefaultTimezone},
		Backend: config.BackendConfig{TimeoutSeconds: 5},
		Bot: config.BotConfig{
			PaginationSize:    5,
			RateLimitMessages: 100,
			RateLimitWindow:   60,
		},
	}
}

func newHarness(t *testing.T, cfg *config.Config) *harness {
	t.Helper()
	logger := zerolog.New(io.Discard)
	if cfg == nil {
		cfg = testConfig()
	}

	tg := newMockTelegram()
	stub := &stubBackend{
		login: &models.Session{
			User:  &models.User{ID: 7, Role: "admin", Name: "Ana"},
			Token: "tok-7",
		},
	}
	sessions := session.NewService(repository.NewMemorySessionRepository(time.Hour), &logger)
	transport := &pushTransport{deliver: map[string]func([]byte){}}
	hub := realtime.NewHub(transport, &logger)
	t.Cleanup(hub.Close)

	b, err := NewBot(tg, cfg, sessions, stub, shell.New(sessions, &logger), hub,
		export.New(t.TempDir(), &logger), NewMetrics(prometheus.NewRegistry()), &logger)
	require.NoError(t, err)

	return &harness{bot: b, tg: tg, backend: stub, sessions: sessions, hub: hub, transport: transport}
}

const testChat int64 = 555

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 10,
		From:      &tgbotapi.User{ID: chatID, UserName: "tester"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-" + data,
		From:    &tgbotapi.User{ID: chatID},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    data,
	}}
}

func (h *harness) send(u tgbotapi.Update) {
	h.bot.processUpdate(context.Background(), u)
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.send(command(testChat, "/login ana@talento.ph secret"))
	_, ok := h.sessions.Current(context.Background(), slotOf(testChat))
	require.True(t, ok)
}
