package bot

import (
	"sync"

	"talento/internal/domain"
	"talento/internal/models"
	"talento/internal/view"

	"github.com/rs/zerolog"
)

// mountable is what every view exposes to the frame.
type mountable interface {
	Unmount()
}

// chat is one "browser tab": a session slot plus the view mounted in it.
type chat struct {
	id       int64
	slot     string
	notifier *chatNotifier

	mu      sync.Mutex
	route   string
	current mountable
	apps    *view.ApplicationsView
	booking *view.BookingView
	manage  *view.ManageBookingView
	txs     *view.TransactionsView
	report  *view.ReportingView
	tab     models.Partition
	page    int
	listMsg int
}

func (b *Bot) chatFor(chatID int64) *chat {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.chats[chatID]
	if !ok {
		c = &chat{
			id:       chatID,
			slot:     slotOf(chatID),
			notifier: &chatNotifier{tg: b.tgService, chatID: chatID, logger: b.logger},
		}
		b.chats[chatID] = c
	}
	return c
}

// unmount releases the mounted view, its realtime subscription included.
func (c *chat) unmount() {
	c.mu.Lock()
	cur := c.current
	c.current = nil
	c.route = ""
	c.apps, c.booking, c.manage, c.txs, c.report = nil, nil, nil, nil, nil
	c.listMsg = 0
	c.page = 0
	c.mu.Unlock()
	if cur != nil {
		cur.Unmount()
	}
}

// mount swaps the mounted view; the previous one is unmounted first.
// bind stores the typed handle under the chat lock.
func (c *chat) mount(route string, v mountable, bind func(*chat)) {
	c.unmount()
	c.mu.Lock()
	c.current = v
	c.route = route
	c.tab = models.PartitionPending
	if bind != nil {
		bind(c)
	}
	c.mu.Unlock()
}

func (c *chat) mountedRoute() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

func (b *Bot) unmountAll() {
	b.mu.Lock()
	chats := make([]*chat, 0, len(b.chats))
	for _, c := range b.chats {
		chats = append(chats, c)
	}
	b.mu.Unlock()
	for _, c := range chats {
		c.unmount()
	}
}

// chatNotifier delivers view notifications as short chat messages.
type chatNotifier struct {
	tg     domain.TelegramService
	chatID int64
	logger *zerolog.Logger
}

var _ view.Notifier = (*chatNotifier)(nil)

func (n *chatNotifier) Success(text string) {
	n.send("✅ " + text)
}

func (n *chatNotifier) Error(text string) {
	n.send("⚠️ " + text)
}

func (n *chatNotifier) send(text string) {
	if _, err := n.tg.SendMessage(n.chatID, text); err != nil {
		n.logger.Error().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send notification")
	}
}
