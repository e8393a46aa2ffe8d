package domain

import (
	"context"
	"time"
)

// Room statuses
const (
	StatusAvailable   = "available"
	StatusOccupied    = "occupied"
	StatusMaintenance = "maintenance"
)

// ValidStatus reports whether s is one of the known room statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return true
	}
	return false
}

// Room represents a hotel room entity
type Room struct {
	ID         string
	CategoryID string
	RoomNumber string   // Unique across all rooms
	Images     []string // Ordered media asset IDs
	Status     string   // available, occupied, maintenance
	Version    int64    // Bumped on every write, guards concurrent updates
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Category   *CategorySummary // Populated on reads via join
}

// CategorySummary is the read-time enrichment attached to a room:
// only the category fields the room views expose.
type CategorySummary struct {
	ID         string
	Name       string
	PriceCents int64
}

// Category represents a room category (pricing tier)
type Category struct {
	ID         string
	Name       string
	PriceCents int64
	CreatedAt  time.Time
}

// RoomRepository defines data access for rooms
type RoomRepository interface {
	Create(ctx context.Context, room *Room) error
	GetByID(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context) ([]*Room, error)
	// Update persists room guarded by room.Version as last-read; the stored
	// version is bumped on success. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, room *Room) error
	// Delete removes the room guarded by the last-read version.
	Delete(ctx context.Context, id string, version int64) error
}

// CategoryRepository defines data access for categories
type CategoryRepository interface {
	Create(ctx context.Context, category *Category) error
	GetByID(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
}

// MediaAsset is a stored asset reference assigned by the media host at upload
type MediaAsset struct {
	ID  string
	URL string
}

// MediaStore defines operations against the hosted media service
type MediaStore interface {
	Upload(ctx context.Context, name string, data []byte) (*MediaAsset, error)
	Delete(ctx context.Context, assetID string) error
	AssetURL(assetID string) string
}

// OrphanQueue tracks media assets whose store-side deletion is still owed.
// Room writes commit first; assets that fail to delete afterwards are queued
// here and reaped in the background.
type OrphanQueue interface {
	Enqueue(ctx context.Context, assetID string) error
	Pending(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, assetID string) error
}

// Room event types published on the live feed
const (
	EventRoomCreated = "room.created"
	EventRoomUpdated = "room.updated"
	EventRoomDeleted = "room.deleted"
)

// RoomEvent is broadcast to feed subscribers after a committed room write
type RoomEvent struct {
	Type       string    `json:"type"`
	RoomID     string    `json:"roomId"`
	RoomNumber string    `json:"roomNumber,omitempty"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// EventPublisher fans a room event out to connected subscribers
type EventPublisher interface {
	Publish(event RoomEvent)
}
