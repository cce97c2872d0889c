package executor

import (
	"context"
	"log/slog"

	"github.com/caasmo/fraudgate/db"
)

// BlocklistCleaner is the subset of blocklist.Store the janitor job needs.
type BlocklistCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// BlocklistJanitorHandler deletes expired blocklist entries on each run
// (spec §4.3's janitor pass).
type BlocklistJanitorHandler struct {
	store  BlocklistCleaner
	logger *slog.Logger
}

func NewBlocklistJanitorHandler(store BlocklistCleaner, logger *slog.Logger) *BlocklistJanitorHandler {
	return &BlocklistJanitorHandler{store: store, logger: logger}
}

func (h *BlocklistJanitorHandler) Handle(ctx context.Context, job db.Job) error {
	n, err := h.store.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	h.logger.Info("blocklist janitor removed expired entries", "count", n)
	return nil
}
