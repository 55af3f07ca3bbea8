package bot

import (
	"fmt"
	"strings"

	"talento/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type PaginationParams struct {
	Page       int
	PageSize   int
	Title      string
	Empty      string
	PagePrefix string
	// Header rows go above the item buttons (tabs), Footer rows below paging.
	Header [][]tgbotapi.InlineKeyboardButton
	Footer [][]tgbotapi.InlineKeyboardButton
}

type page struct {
	Text     string
	Keyboard tgbotapi.InlineKeyboardMarkup
	Page     int
}

// renderPaginatedList draws one page of a list with prev/next buttons.
func renderPaginatedList(params PaginationParams, totalCount int, renderer func(startIdx, endIdx int) (string, [][]tgbotapi.InlineKeyboardButton)) page {
	itemsPerPage := params.PageSize
	if itemsPerPage <= 0 {
		itemsPerPage = models.DefaultPaginationSize
	}
	if params.Page < 0 {
		params.Page = 0
	}

	totalPages := (totalCount + itemsPerPage - 1) / itemsPerPage
	if params.Page >= totalPages && totalPages > 0 {
		params.Page = totalPages - 1
	}

	startIdx := params.Page * itemsPerPage
	endIdx := startIdx + itemsPerPage
	if endIdx > totalCount {
		endIdx = totalCount
	}

	var message strings.Builder
	message.WriteString(params.Title)
	message.WriteString("\n\n")

	keyboard := append([][]tgbotapi.InlineKeyboardButton(nil), params.Header...)

	if totalCount == 0 {
		message.WriteString(params.Empty)
	} else {
		if totalPages > 1 {
			message.WriteString(fmt.Sprintf("Page %d of %d\n\n", params.Page+1, totalPages))
		}
		content, rows := renderer(startIdx, endIdx)
		message.WriteString(content)
		keyboard = append(keyboard, rows...)
	}

	var navButtons []tgbotapi.InlineKeyboardButton
	if params.Page > 0 {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("⬅️ Prev", fmt.Sprintf("%s%d", params.PagePrefix, params.Page-1)))
	}
	if endIdx < totalCount {
		navButtons = append(navButtons, tgbotapi.NewInlineKeyboardButtonData("Next ➡️", fmt.Sprintf("%s%d", params.PagePrefix, params.Page+1)))
	}
	if len(navButtons) > 0 {
		keyboard = append(keyboard, navButtons)
	}
	keyboard = append(keyboard, params.Footer...)

	return page{
		Text:     strings.TrimRight(message.String(), "\n"),
		Keyboard: tgbotapi.InlineKeyboardMarkup{InlineKeyboard: keyboard},
		Page:     params.Page,
	}
}

// showList edits the chat's list message in place when there is one,
// otherwise sends a new message and remembers it.
func (b *Bot) showList(c *chat, p page, edit bool) {
	c.mu.Lock()
	msgID := c.listMsg
	c.page = p.Page
	c.mu.Unlock()

	if edit && msgID != 0 {
		kb := p.Keyboard
		_, err := b.tgService.EditMessage(c.id, msgID, p.Text, &kb)
		if err == nil {
			return
		}
		b.logger.Debug().Err(err).Int64("chat_id", c.id).Msg("Edit failed, sending a new list")
	}

	sent, err := b.tgService.SendWithInlineKeyboard(c.id, p.Text, p.Keyboard)
	if err != nil {
		b.logger.Error().Err(err).Int64("chat_id", c.id).Msg("Failed to send list")
		return
	}
	c.mu.Lock()
	c.listMsg = sent.MessageID
	c.mu.Unlock()
}

func (b *Bot) pageSize() int {
	if b.config != nil && b.config.Bot.PaginationSize > 0 {
		return b.config.Bot.PaginationSize
	}
	return models.DefaultPaginationSize
}
