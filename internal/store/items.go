package store

import (
	"context"
	"fmt"

	"github.com/petermazzocco/go-presenter/internal/ordering"
	"github.com/petermazzocco/go-presenter/models"
	"gorm.io/gorm"
)

// ItemPatch carries the fields an owner may change on an item.
type ItemPatch struct {
	Type        *models.ItemType `json:"type"`
	Title       *string          `json:"title"`
	URL         *string          `json:"url"`
	DisplayTime *int             `json:"display_time"`
	StorageKey  *string          `json:"storage_key"`
}

// checkStorageKey rejects keys outside the owner's upload prefix.
func checkStorageKey(ownerID, key string) error {
	if key == "" || models.OwnsMediaKey(ownerID, key) {
		return nil
	}
	return &models.ValidationError{Field: "storage_key", Message: "must reference one of your uploads"}
}

func listItems(tx *gorm.DB, presentationID string) ([]models.PresentationItem, error) {
	var items []models.PresentationItem
	err := tx.Where("presentation_id = ?", presentationID).
		Order("order_index ASC").
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// ListItems returns every item of a presentation in playback order. It does
// no access checks; use VisiblePresentation for viewer-facing reads.
func (s *Store) ListItems(ctx context.Context, presentationID string) ([]models.PresentationItem, error) {
	return listItems(s.db.WithContext(ctx), presentationID)
}

// CreateItem appends an item to the end of the presentation's playlist.
func (s *Store) CreateItem(ctx context.Context, ownerID string, item *models.PresentationItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	if err := checkStorageKey(ownerID, item.StorageKey); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedPresentation(tx, item.PresentationID, ownerID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.PresentationItem{}).
			Where("presentation_id = ?", item.PresentationID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		item.OrderIndex = int(count)
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("creating item: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("item created", "presentation_id", item.PresentationID, "item_id", item.ID, "order_index", item.OrderIndex)
	return nil
}

func ownedItem(tx *gorm.DB, ownerID, presentationID, itemID string) (*models.PresentationItem, error) {
	if _, err := ownedPresentation(tx, presentationID, ownerID); err != nil {
		return nil, err
	}
	var item models.PresentationItem
	err := tx.Where("id = ? AND presentation_id = ?", itemID, presentationID).First(&item).Error
	if err != nil {
		return nil, notFound(err, "item")
	}
	return &item, nil
}

func (s *Store) UpdateItem(ctx context.Context, ownerID, presentationID, itemID string, patch ItemPatch) (*models.PresentationItem, error) {
	var out *models.PresentationItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := ownedItem(tx, ownerID, presentationID, itemID)
		if err != nil {
			return err
		}
		if patch.Type != nil {
			item.Type = *patch.Type
		}
		if patch.Title != nil {
			item.Title = *patch.Title
		}
		if patch.URL != nil {
			item.URL = *patch.URL
		}
		if patch.DisplayTime != nil {
			item.DisplayTime = *patch.DisplayTime
		}
		if patch.StorageKey != nil {
			item.StorageKey = *patch.StorageKey
		}
		if err := item.Validate(); err != nil {
			return err
		}
		if err := checkStorageKey(ownerID, item.StorageKey); err != nil {
			return err
		}
		err = tx.Model(item).
			Select("Type", "Title", "URL", "DisplayTime", "StorageKey").
			Updates(item).Error
		if err != nil {
			return fmt.Errorf("updating item: %w", err)
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteItem removes an item and closes the gap it leaves in order_index.
func (s *Store) DeleteItem(ctx context.Context, ownerID, presentationID, itemID string) (*models.PresentationItem, error) {
	var removed *models.PresentationItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := ownedItem(tx, ownerID, presentationID, itemID)
		if err != nil {
			return err
		}
		if err := tx.Delete(item).Error; err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		rest, err := listItems(tx, presentationID)
		if err != nil {
			return err
		}
		ids := make([]string, len(rest))
		for i, it := range rest {
			ids[i] = it.ID
		}
		if err := writeOrder(tx, presentationID, ids); err != nil {
			return err
		}
		removed = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("item deleted", "presentation_id", presentationID, "item_id", itemID)
	return removed, nil
}

// MediaInUse reports whether any item still points at the object stored
// under key or served from url.
func (s *Store) MediaInUse(ctx context.Context, key, url string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.PresentationItem{})
	switch {
	case key != "" && url != "":
		q = q.Where("storage_key = ? OR url = ?", key, url)
	case key != "":
		q = q.Where("storage_key = ?", key)
	default:
		q = q.Where("url = ?", url)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting media references: %w", err)
	}
	return count > 0, nil
}

// ReorderItems rewrites order_index for every item so that itemIDs[i] lands
// at position i. itemIDs must name each current item exactly once. Either all
// rows are rewritten or none are.
func (s *Store) ReorderItems(ctx context.Context, ownerID, presentationID string, itemIDs []string) ([]models.PresentationItem, error) {
	var out []models.PresentationItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedPresentation(tx, presentationID, ownerID); err != nil {
			return err
		}
		current, err := listItems(tx, presentationID)
		if err != nil {
			return err
		}
		currentIDs := make([]string, len(current))
		for i, it := range current {
			currentIDs[i] = it.ID
		}
		if !ordering.IsPermutation(currentIDs, itemIDs) {
			return fmt.Errorf("%w: expected %d distinct item ids of presentation %s", ErrInvalidOrder, len(currentIDs), presentationID)
		}
		if err := writeOrder(tx, presentationID, itemIDs); err != nil {
			return err
		}
		out, err = listItems(tx, presentationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("items reordered", "presentation_id", presentationID, "count", len(out))
	return out, nil
}

// writeOrder issues one update per item. A missing row aborts the
// surrounding transaction.
func writeOrder(tx *gorm.DB, presentationID string, ids []string) error {
	for i, id := range ids {
		res := tx.Model(&models.PresentationItem{}).
			Where("id = ? AND presentation_id = ?", id, presentationID).
			Update("order_index", i)
		if res.Error != nil {
			return fmt.Errorf("writing order_index for %s: %w", id, res.Error)
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("writing order_index for %s: %w", id, ErrConflict)
		}
	}
	return nil
}
