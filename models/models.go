package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultRefreshInterval = 5
	DefaultDisplayTime     = 1
	maxTitleLength         = 255
)

type ItemType string

const (
	ItemTypeImage   ItemType = "image"
	ItemTypePowerBI ItemType = "powerbi"
)

func (t ItemType) Valid() bool {
	return t == ItemTypeImage || t == ItemTypePowerBI
}

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ValidationError reports a field that failed local validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type User struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"size:255" json:"-"`
	Provider     string     `gorm:"size:32;not null;default:password" json:"provider"`
	Roles        []UserRole `json:"roles,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type UserRole struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      Role      `gorm:"size:32;not null;uniqueIndex:idx_user_role" json:"role"`
}

type Presentation struct {
	ID              string             `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Title           string             `gorm:"size:255;not null" json:"title"`
	RefreshInterval int                `gorm:"not null" json:"refresh_interval"`
	IsPublic        bool               `gorm:"not null" json:"is_public"`
	OwnerID         string             `gorm:"type:varchar(36);not null;index" json:"owner_id"`
	Owner           *User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Items           []PresentationItem `gorm:"constraint:OnDelete:CASCADE;" json:"items,omitempty"`
}

func (p *Presentation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Validate checks the fields an owner can set.
func (p *Presentation) Validate() error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if len(p.Title) > maxTitleLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", maxTitleLength)}
	}
	if p.RefreshInterval < 1 {
		return &ValidationError{Field: "refresh_interval", Message: "must be at least 1 minute"}
	}
	return nil
}

// RefreshEvery is how often a player re-fetches the item list.
func (p Presentation) RefreshEvery() time.Duration {
	return time.Duration(p.RefreshInterval) * time.Minute
}

type PresentationItem struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	PresentationID string    `gorm:"type:varchar(36);not null;index" json:"presentation_id"`
	Type           ItemType  `gorm:"size:16;not null" json:"type"`
	Title          string    `gorm:"size:255;not null" json:"title"`
	URL            string    `gorm:"type:text;not null" json:"url"`
	DisplayTime    int       `gorm:"not null" json:"display_time"`
	OrderIndex     int       `gorm:"not null;index" json:"order_index"`
	StorageKey     string    `gorm:"size:512" json:"storage_key,omitempty"`
}

func (i *PresentationItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// Validate checks the fields an owner can set. A non-positive DisplayTime is
// allowed and turns off auto-advance for the item.
func (i *PresentationItem) Validate() error {
	if !i.Type.Valid() {
		return &ValidationError{Field: "type", Message: fmt.Sprintf("must be %q or %q", ItemTypeImage, ItemTypePowerBI)}
	}
	i.Title = strings.TrimSpace(i.Title)
	if i.Title == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if len(i.Title) > maxTitleLength {
		return &ValidationError{Field: "title", Message: fmt.Sprintf("must be at most %d characters", maxTitleLength)}
	}
	i.URL = strings.TrimSpace(i.URL)
	if i.URL == "" {
		return &ValidationError{Field: "url", Message: "is required"}
	}
	return nil
}

// DisplayDuration converts DisplayTime (minutes) to a duration. Zero or
// negative means the item never auto-advances.
func (i PresentationItem) DisplayDuration() time.Duration {
	if i.DisplayTime <= 0 {
		return 0
	}
	return time.Duration(i.DisplayTime) * time.Minute
}

// AutoAdvances reports whether the player moves past this item on its own.
func (i PresentationItem) AutoAdvances() bool {
	return i.DisplayTime > 0
}

// MediaPrefix is the object key prefix for images uploaded by ownerID.
func MediaPrefix(ownerID string) string {
	return "images/" + ownerID + "/"
}

// OwnsMediaKey reports whether key lies under ownerID's upload prefix.
func OwnsMediaKey(ownerID, key string) bool {
	prefix := MediaPrefix(ownerID)
	return ownerID != "" && len(key) > len(prefix) && strings.HasPrefix(key, prefix) && !strings.Contains(key, "..")
}

// PublicVisible reports whether anonymous viewers may see the item. Dashboard
// embeds carry credentials in their URLs and stay owner-only.
func (i PresentationItem) PublicVisible() bool {
	return i.Type != ItemTypePowerBI
}
