package bot

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const monthLayout = "2006-01"

// calendarKeyboard builds a Monday-first month grid. Blocked days get ✖ and
// days with an accepted booking get ✔; every day is clickable.
func calendarKeyboard(month time.Time, blocked, booked func(day time.Time) bool) tgbotapi.InlineKeyboardMarkup {
	loc := month.Location()
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, loc)
	offset := int(first.Weekday())
	if offset == 0 {
		offset = 7
	}
	daysInMonth := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, loc).Day()

	noop := func(label string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, "noop")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("«", "cal:"+first.AddDate(0, -1, 0).Format(monthLayout)),
			noop(first.Format("January 2006")),
			tgbotapi.NewInlineKeyboardButtonData("»", "cal:"+first.AddDate(0, 1, 0).Format(monthLayout)),
		},
		{noop("Mo"), noop("Tu"), noop("We"), noop("Th"), noop("Fr"), noop("Sa"), noop("Su")},
	}

	day := 1
	for day <= daysInMonth {
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for col := 1; col <= 7; col++ {
			if (day == 1 && col < offset) || day > daysInMonth {
				row = append(row, noop(" "))
				continue
			}
			date := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
			label := strconv.Itoa(day)
			switch {
			case blocked != nil && blocked(date):
				label = "✖" + label
			case booked != nil && booked(date):
				label = "✔" + label
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("day:%s", date.Format("2006-01-02"))))
			day++
		}
		rows = append(rows, row)
	}

	rows = append(rows, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back to bookings", "tab:0"),
	})
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// confirmKeyboard is the two-button step before a day is saved.
func confirmKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Confirm", "day_confirm"),
		tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "day_cancel"),
	))
}
