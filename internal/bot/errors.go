package bot

import (
	"errors"

	"talento/internal/backend"
	"talento/internal/session"
	"talento/internal/view"
)

// getErrorMessage maps an error to the text shown in the chat.
func (b *Bot) getErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, backend.ErrUnauthenticated) || errors.Is(err, session.ErrNoSession) {
		return "⚠️ Your session has ended. " + loginHint
	}

	if errors.Is(err, backend.ErrReportFailed) {
		return "⚠️ " + view.EmptyReport
	}

	return "⚠️ " + view.ErrorText(err, fallback)
}
