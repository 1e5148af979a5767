package store

import (
	"context"
	"fmt"

	"github.com/petermazzocco/go-presenter/models"
	"gorm.io/gorm"
)

// PresentationPatch carries the fields an owner may change. Nil fields are left alone.
type PresentationPatch struct {
	Title           *string `json:"title"`
	RefreshInterval *int    `json:"refresh_interval"`
	IsPublic        *bool   `json:"is_public"`
}

func (s *Store) CreatePresentation(ctx context.Context, p *models.Presentation) error {
	if p.OwnerID == "" {
		return fmt.Errorf("creating presentation: owner: %w", ErrForbidden)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("creating presentation: %w", err)
	}
	s.logger.Info("presentation created", "presentation_id", p.ID, "owner_id", p.OwnerID)
	return nil
}

// ListPresentations returns the presentations owned by ownerID, newest first.
func (s *Store) ListPresentations(ctx context.Context, ownerID string) ([]models.Presentation, error) {
	var out []models.Presentation
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("listing presentations: %w", err)
	}
	return out, nil
}

// ListAllPresentations is the admin view across every owner.
func (s *Store) ListAllPresentations(ctx context.Context) ([]models.Presentation, error) {
	var out []models.Presentation
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("listing presentations: %w", err)
	}
	return out, nil
}

func (s *Store) GetPresentation(ctx context.Context, id string) (*models.Presentation, error) {
	return getPresentation(s.db.WithContext(ctx), id)
}

func getPresentation(tx *gorm.DB, id string) (*models.Presentation, error) {
	var p models.Presentation
	if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err, "presentation")
	}
	return &p, nil
}

// ownedPresentation loads a presentation and fails with ErrForbidden unless
// ownerID owns it. A private presentation is ErrNotFound to anyone who could
// not read it either.
func ownedPresentation(tx *gorm.DB, id, ownerID string) (*models.Presentation, error) {
	p, err := getPresentation(tx, id)
	if err != nil {
		return nil, err
	}
	if ownerID != "" && p.OwnerID == ownerID {
		return p, nil
	}
	if !p.IsPublic {
		// Only viewers who can already see a private presentation learn
		// that it exists.
		admin, err := hasRole(tx, ownerID, models.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, fmt.Errorf("presentation %s: %w", id, ErrNotFound)
		}
	}
	return nil, fmt.Errorf("presentation %s: %w", id, ErrForbidden)
}

// VisiblePresentation returns a presentation and the items viewerID may see.
// Owners and admins see every item. Anyone else sees public presentations
// without dashboard items; private ones report ErrNotFound.
func (s *Store) VisiblePresentation(ctx context.Context, id, viewerID string) (*models.Presentation, []models.PresentationItem, error) {
	tx := s.db.WithContext(ctx)
	p, err := getPresentation(tx, id)
	if err != nil {
		return nil, nil, err
	}

	full := viewerID != "" && p.OwnerID == viewerID
	if !full {
		admin, err := hasRole(tx, viewerID, models.RoleAdmin)
		if err != nil {
			return nil, nil, err
		}
		full = admin
	}
	if !full && !p.IsPublic {
		return nil, nil, fmt.Errorf("presentation %s: %w", id, ErrNotFound)
	}

	items, err := listItems(tx, id)
	if err != nil {
		return nil, nil, err
	}
	if !full {
		visible := items[:0]
		for _, item := range items {
			if item.PublicVisible() {
				visible = append(visible, item)
			}
		}
		items = visible
	}
	return p, items, nil
}

func (s *Store) UpdatePresentation(ctx context.Context, ownerID, id string, patch PresentationPatch) (*models.Presentation, error) {
	var out *models.Presentation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := ownedPresentation(tx, id, ownerID)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			p.Title = *patch.Title
		}
		if patch.RefreshInterval != nil {
			p.RefreshInterval = *patch.RefreshInterval
		}
		if patch.IsPublic != nil {
			p.IsPublic = *patch.IsPublic
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if err := tx.Model(p).Select("Title", "RefreshInterval", "IsPublic").Updates(p).Error; err != nil {
			return fmt.Errorf("updating presentation: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePresentation removes a presentation and its items, returning the
// removed items so callers can clean up stored media.
func (s *Store) DeletePresentation(ctx context.Context, ownerID, id string) ([]models.PresentationItem, error) {
	var removed []models.PresentationItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedPresentation(tx, id, ownerID); err != nil {
			return err
		}
		items, err := listItems(tx, id)
		if err != nil {
			return err
		}
		if err := tx.Where("presentation_id = ?", id).Delete(&models.PresentationItem{}).Error; err != nil {
			return fmt.Errorf("deleting items: %w", err)
		}
		if err := tx.Where("id = ?", id).Delete(&models.Presentation{}).Error; err != nil {
			return fmt.Errorf("deleting presentation: %w", err)
		}
		removed = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("presentation deleted", "presentation_id", id, "items", len(removed))
	return removed, nil
}
