package view

import (
	"context"
	"sync"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

// TransactionsView is the read-only coin transaction list.
type TransactionsView struct {
	backend  domain.Backend
	notifier Notifier
	logger   zerolog.Logger

	mu     sync.Mutex
	lc     lifecycle
	items  []models.Transaction
	loaded bool
}

func NewTransactionsView(b domain.Backend, n Notifier, logger *zerolog.Logger) *TransactionsView {
	return &TransactionsView{
		backend:  b,
		notifier: n,
		logger:   logger.With().Str("component", "transactions_view").Logger(),
	}
}

func (v *TransactionsView) Mount(ctx context.Context) error {
	v.mu.Lock()
	gen := v.lc.begin()
	v.items = nil
	v.loaded = false
	v.mu.Unlock()

	txs, err := v.backend.ListTransactions(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}
	v.loaded = true
	if err != nil {
		v.logger.Error().Err(err).Msg("Error fetching transactions")
		v.notifier.Error("Failed to load transactions.")
		return err
	}
	v.items = txs
	return nil
}

func (v *TransactionsView) Unmount() {
	v.mu.Lock()
	v.lc.end()
	v.mu.Unlock()
}

func (v *TransactionsView) Transactions() []models.Transaction {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Transaction(nil), v.items...)
}

func (v *TransactionsView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}
