package view

import (
	"context"
	"fmt"
	"sync"

	"talento/internal/domain"
	"talento/internal/models"

	"github.com/rs/zerolog"
)

// ApplicationsView lists performer applications. Approve and reject re-fetch
// the whole list on success.
type ApplicationsView struct {
	backend  domain.Backend
	notifier Notifier
	logger   zerolog.Logger

	mu     sync.Mutex
	lc     lifecycle
	items  []models.Application
	loaded bool
}

func NewApplicationsView(b domain.Backend, n Notifier, logger *zerolog.Logger) *ApplicationsView {
	return &ApplicationsView{
		backend:  b,
		notifier: n,
		logger:   logger.With().Str("component", "applications_view").Logger(),
	}
}

func (v *ApplicationsView) Mount(ctx context.Context) error {
	v.mu.Lock()
	gen := v.lc.begin()
	v.items = nil
	v.loaded = false
	v.mu.Unlock()

	return v.fetch(ctx, gen)
}

func (v *ApplicationsView) Unmount() {
	v.mu.Lock()
	v.lc.end()
	v.mu.Unlock()
}

func (v *ApplicationsView) fetch(ctx context.Context, gen uint64) error {
	apps, err := v.backend.ListApplications(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.lc.live(gen) {
		return nil
	}
	if err != nil {
		v.logger.Error().Err(err).Msg("Error fetching applications")
		v.notifier.Error("Failed to load applications.")
		v.loaded = true
		return err
	}
	v.items = apps
	v.loaded = true
	return nil
}

// Applications returns a snapshot of the list.
func (v *ApplicationsView) Applications() []models.Application {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Application(nil), v.items...)
}

// Loaded reports whether the last fetch has resolved.
func (v *ApplicationsView) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

func (v *ApplicationsView) Approve(ctx context.Context, id int64) error {
	return v.transition(ctx, id, "approve", v.backend.ApproveApplication, "Application approved.")
}

func (v *ApplicationsView) Reject(ctx context.Context, id int64) error {
	return v.transition(ctx, id, "reject", v.backend.RejectApplication, "Application rejected.")
}

func (v *ApplicationsView) transition(ctx context.Context, id int64, verb string, call func(context.Context, int64) error, okText string) error {
	v.mu.Lock()
	gen := v.lc.gen
	v.mu.Unlock()

	if err := call(ctx, id); err != nil {
		v.logger.Error().Err(err).Int64("application_id", id).Str("action", verb).Msg("Application transition failed")
		v.mu.Lock()
		if v.lc.live(gen) {
			v.notifier.Error(ErrorText(err, fmt.Sprintf("Failed to %s application.", verb)))
		}
		v.mu.Unlock()
		return err
	}

	v.mu.Lock()
	live := v.lc.live(gen)
	if live {
		v.notifier.Success(okText)
	}
	v.mu.Unlock()
	if !live {
		return nil
	}
	return v.fetch(ctx, gen)
}
