package bot

import (
	"context"
	"os"
	"time"

	"talento/internal/view"
)

// handleExport builds an Excel file from the backend and uploads it.
func (b *Bot) handleExport(ctx context.Context, c *chat, what string) {
	if b.exporter == nil {
		b.sendMessage(c.id, "Export is not configured.")
		return
	}
	if _, ok := b.sessions.Current(ctx, c.slot); !ok {
		b.sendMessage(c.id, loginHint)
		return
	}

	now := time.Now().In(b.loc)
	var (
		path    string
		caption string
		err     error
	)
	switch what {
	case "report":
		summary, ferr := b.backend.SummaryReport(ctx)
		if ferr != nil {
			b.logger.Error().Err(ferr).Msg("Error fetching summary data for export")
			b.sendMessage(c.id, b.getErrorMessage(ferr, "Failed to load summary report."))
			return
		}
		path, err = b.exporter.Report(view.BuildReport(summary, now, b.loc), now)
		caption = "Summary report " + now.Format("Jan 2, 2006")
	case "transactions":
		txs, ferr := b.backend.ListTransactions(ctx)
		if ferr != nil {
			b.logger.Error().Err(ferr).Msg("Error fetching transactions for export")
			b.sendMessage(c.id, b.getErrorMessage(ferr, "Failed to load transactions."))
			return
		}
		path, err = b.exporter.Transactions(txs, now)
		caption = "Transactions " + now.Format("Jan 2, 2006")
	default:
		b.sendMessage(c.id, "Usage: /export report|transactions")
		return
	}
	b.metrics.action("export_"+what, err)
	if err != nil {
		b.logger.Error().Err(err).Str("export", what).Msg("Failed to create Excel file")
		b.sendMessage(c.id, "⚠️ Failed to create the Excel file.")
		return
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil {
			b.logger.Warn().Err(rmErr).Str("file_path", path).Msg("Failed to remove export file")
		}
	}()

	if _, err := b.tgService.SendDocument(c.id, path, caption); err != nil {
		b.logger.Error().Err(err).Str("file_path", path).Msg("Failed to send export")
		b.sendMessage(c.id, "⚠️ Failed to send the Excel file.")
	}
}
