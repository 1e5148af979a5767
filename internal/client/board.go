package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/petermazzocco/go-presenter/internal/ordering"
	"github.com/petermazzocco/go-presenter/models"
)

// ErrBusy is returned when a move is attempted while another is being saved.
var ErrBusy = errors.New("a reorder is already being saved")

// Reorderer persists a full item order. *Client implements it.
type Reorderer interface {
	ReorderItems(ctx context.Context, presentationID string, itemIDs []string) ([]models.PresentationItem, error)
}

// Board is the drag-to-reorder view of one presentation. Moves show up in
// Items immediately and are rolled back to the last saved order when the
// server rejects them.
type Board struct {
	api            Reorderer
	presentationID string

	mu        sync.Mutex
	committed []models.PresentationItem
	displayed []models.PresentationItem
	busy      bool
}

func NewBoard(api Reorderer, presentationID string, items []models.PresentationItem) *Board {
	b := &Board{api: api, presentationID: presentationID}
	b.Replace(items)
	return b
}

// Items returns the order currently shown.
func (b *Board) Items() []models.PresentationItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.displayed)
}

// Committed returns the last order the server confirmed.
func (b *Board) Committed() []models.PresentationItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return clone(b.committed)
}

// Replace loads a freshly fetched list as both shown and saved order.
func (b *Board) Replace(items []models.PresentationItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = clone(items)
	b.displayed = clone(items)
}

// Move drops the item at from onto position to and saves the new order.
func (b *Board) Move(ctx context.Context, from, to int) error {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return ErrBusy
	}
	next, err := ordering.Move(b.displayed, from, to)
	if err != nil || from == to {
		b.mu.Unlock()
		return err
	}
	b.displayed = next
	b.busy = true
	ids := make([]string, len(next))
	for i, item := range next {
		ids[i] = item.ID
	}
	b.mu.Unlock()

	saved, err := b.api.ReorderItems(ctx, b.presentationID, ids)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.busy = false
	if err != nil {
		b.displayed = clone(b.committed)
		return fmt.Errorf("saving order failed, previous order restored: %w", err)
	}
	if saved == nil {
		saved = next
	}
	b.committed = clone(saved)
	b.displayed = clone(saved)
	return nil
}

func clone(items []models.PresentationItem) []models.PresentationItem {
	return append([]models.PresentationItem(nil), items...)
}
