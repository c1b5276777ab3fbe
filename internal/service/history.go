package service

import (
	"context"

	"github.com/shelfsync/shelfsync/internal/domain"
)

// RunLister reads journaled runs.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]domain.Run, error)
	LastSuccess(ctx context.Context) (*domain.Run, error)
}

// History reports past runs without touching WeRead or the workspace.
type History struct {
	journal RunLister
}

// NewHistory creates a history reader.
func NewHistory(journal RunLister) *History {
	return &History{journal: journal}
}

// Recent returns up to limit runs, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]domain.Run, error) {
	return h.journal.Recent(ctx, limit)
}

// LastSuccess returns the newest run that finished without error.
func (h *History) LastSuccess(ctx context.Context) (*domain.Run, error) {
	return h.journal.LastSuccess(ctx)
}
