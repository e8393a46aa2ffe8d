package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/roomstay/internal/domain"
	"github.com/yourorg/roomstay/internal/observability/metrics"
	"github.com/yourorg/roomstay/pkg/cache"
	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds the media host fan-out within one request
const uploadConcurrency = 4

const categoryCacheTTL = time.Minute

// RoomService orchestrates room writes across the database and the media
// host. Database writes commit first; media cleanup runs afterwards and
// failed cleanups land on the orphan queue instead of failing the request.
type RoomService struct {
	rooms      domain.RoomRepository
	categories domain.CategoryRepository
	media      domain.MediaStore
	orphans    domain.OrphanQueue
	events     domain.EventPublisher
	catCache   *cache.Cache
	logger     *slog.Logger
	maxImages  int
}

// Upload is one attached file, already normalized for storage
type Upload struct {
	Name string
	Data []byte
}

// CreateRoomInput captures a room creation request
type CreateRoomInput struct {
	CategoryID string
	RoomNumber string
	Status     string
	Files      []Upload
}

// UpdateRoomInput captures a partial room update. Nil pointer fields were
// absent from the request and leave the stored value untouched; a present
// field always overwrites, and present-but-empty is rejected.
type UpdateRoomInput struct {
	CategoryID      *string
	RoomNumber      *string
	Status          *string
	ExpectedVersion *int64
	ImagesToDelete  []string
	Files           []Upload
}

// NewRoomService creates a room service
func NewRoomService(
	rooms domain.RoomRepository,
	categories domain.CategoryRepository,
	media domain.MediaStore,
	orphans domain.OrphanQueue,
	events domain.EventPublisher,
	logger *slog.Logger,
	maxImages int,
) *RoomService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxImages <= 0 {
		maxImages = 12
	}
	return &RoomService{
		rooms:      rooms,
		categories: categories,
		media:      media,
		orphans:    orphans,
		events:     events,
		catCache:   cache.New(),
		logger:     logger,
		maxImages:  maxImages,
	}
}

// Create validates the category reference, uploads the attached files and
// persists a new room. No partial image set is ever persisted: a single
// failed upload aborts the whole creation before the database write.
func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*domain.Room, error) {
	if in.CategoryID == "" {
		return nil, domain.Validationf("category", "required")
	}
	if in.RoomNumber == "" {
		return nil, domain.Validationf("roomNumber", "required")
	}
	if in.Status == "" {
		in.Status = domain.StatusAvailable
	}
	if !domain.ValidStatus(in.Status) {
		return nil, domain.Validationf("status", "must be one of available, occupied, maintenance")
	}
	if len(in.Files) > s.maxImages {
		return nil, domain.Validationf("images", "at most %d images per room", s.maxImages)
	}

	category, err := s.lookupCategory(ctx, in.CategoryID)
	if err != nil {
		metrics.ObserveRoomOperation("create", "error")
		return nil, err
	}

	assets, err := s.uploadAll(ctx, in.Files)
	if err != nil {
		metrics.ObserveRoomOperation("create", "error")
		return nil, err
	}

	room := &domain.Room{
		ID:         uuid.NewString(),
		CategoryID: category.ID,
		RoomNumber: in.RoomNumber,
		Images:     assetIDs(assets),
		Status:     in.Status,
	}

	if err := s.rooms.Create(ctx, room); err != nil {
		// The uploads are already on the media host; hand them to the reaper.
		s.orphanAll(ctx, room.Images)
		metrics.ObserveRoomOperation("create", "error")
		return nil, err
	}

	room.Category = summarize(category)
	s.publish(domain.EventRoomCreated, room)
	metrics.ObserveRoomOperation("create", "success")

	s.logger.Info("room created",
		slog.String("room_id", room.ID),
		slog.String("room_number", room.RoomNumber),
		slog.Int("images", len(room.Images)),
	)
	return room, nil
}

// List returns all rooms enriched with their category name and price
func (s *RoomService) List(ctx context.Context) ([]*domain.Room, error) {
	return s.rooms.List(ctx)
}

// Get returns a single room with category enrichment
func (s *RoomService) Get(ctx context.Context, id string) (*domain.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// Update applies a partial update to a room. New files are uploaded before
// the database write; store-side deletion of removed images runs after the
// write commits, and failures there are queued for the reaper rather than
// failing the request.
func (s *RoomService) Update(ctx context.Context, id string, in UpdateRoomInput) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		metrics.ObserveRoomOperation("update", "error")
		return nil, err
	}

	if in.ExpectedVersion != nil && *in.ExpectedVersion != room.Version {
		metrics.ObserveRoomOperation("update", "conflict")
		return nil, domain.ErrVersionConflict
	}

	if in.CategoryID != nil {
		if *in.CategoryID == "" {
			return nil, domain.Validationf("category", "cannot be cleared")
		}
		category, err := s.lookupCategory(ctx, *in.CategoryID)
		if err != nil {
			metrics.ObserveRoomOperation("update", "error")
			return nil, err
		}
		room.CategoryID = category.ID
		room.Category = summarize(category)
	}
	if in.RoomNumber != nil {
		if *in.RoomNumber == "" {
			return nil, domain.Validationf("roomNumber", "cannot be cleared")
		}
		room.RoomNumber = *in.RoomNumber
	}
	if in.Status != nil {
		if !domain.ValidStatus(*in.Status) {
			return nil, domain.Validationf("status", "must be one of available, occupied, maintenance")
		}
		room.Status = *in.Status
	}

	removed, kept := partitionImages(room.Images, in.ImagesToDelete)
	if len(kept)+len(in.Files) > s.maxImages {
		return nil, domain.Validationf("images", "at most %d images per room", s.maxImages)
	}

	assets, err := s.uploadAll(ctx, in.Files)
	if err != nil {
		metrics.ObserveRoomOperation("update", "error")
		return nil, err
	}
	room.Images = append(kept, assetIDs(assets)...)

	if err := s.rooms.Update(ctx, room); err != nil {
		s.orphanAll(ctx, assetIDs(assets))
		result := "error"
		if errors.Is(err, domain.ErrVersionConflict) {
			result = "conflict"
		}
		metrics.ObserveRoomOperation("update", result)
		return nil, err
	}

	// The row is committed; removed assets are now garbage on the media
	// host and safe to clean up.
	s.deleteAssets(ctx, removed)

	s.publish(domain.EventRoomUpdated, room)
	metrics.ObserveRoomOperation("update", "success")

	s.logger.Info("room updated",
		slog.String("room_id", room.ID),
		slog.Int64("version", room.Version),
		slog.Int("images_removed", len(removed)),
		slog.Int("images_added", len(assets)),
	)
	return room, nil
}

// Delete removes the room record first, then deletes its images from the
// media host. Orphaned store assets are cheaper than a room record pointing
// at deleted images, so media failures never resurrect the room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	room, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		metrics.ObserveRoomOperation("delete", "error")
		return err
	}

	if err := s.rooms.Delete(ctx, room.ID, room.Version); err != nil {
		metrics.ObserveRoomOperation("delete", "error")
		return err
	}

	s.deleteAssets(ctx, room.Images)

	s.publish(domain.EventRoomDeleted, room)
	metrics.ObserveRoomOperation("delete", "success")

	s.logger.Info("room deleted",
		slog.String("room_id", room.ID),
		slog.String("room_number", room.RoomNumber),
		slog.Int("images", len(room.Images)),
	)
	return nil
}

// lookupCategory resolves a category through a short-lived cache
func (s *RoomService) lookupCategory(ctx context.Context, id string) (*domain.Category, error) {
	key := "category:" + id
	if cached, ok := s.catCache.Get(key); ok {
		return cached.(*domain.Category), nil
	}

	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.catCache.Set(key, category, categoryCacheTTL)
	return category, nil
}

// uploadAll stores every file on the media host as a bounded concurrent
// batch. The batch is all-or-nothing: the first failure cancels the rest,
// and any uploads that did land are queued for reaping.
func (s *RoomService) uploadAll(ctx context.Context, files []Upload) ([]*domain.MediaAsset, error) {
	if len(files) == 0 {
		return nil, nil
	}

	assets := make([]*domain.MediaAsset, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)

	for i, file := range files {
		g.Go(func() error {
			asset, err := s.media.Upload(gctx, file.Name, file.Data)
			if err != nil {
				return fmt.Errorf("uploading %s: %w", file.Name, err)
			}
			assets[i] = asset
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var landed []string
		for _, asset := range assets {
			if asset != nil {
				landed = append(landed, asset.ID)
			}
		}
		s.orphanAll(ctx, landed)
		return nil, err
	}
	return assets, nil
}

// deleteAssets removes assets from the media host concurrently. One
// failing deletion never blocks another; failures go to the orphan queue.
func (s *RoomService) deleteAssets(ctx context.Context, assetIDs []string) {
	if len(assetIDs) == 0 {
		return
	}

	g := new(errgroup.Group)
	g.SetLimit(uploadConcurrency)

	for _, id := range assetIDs {
		g.Go(func() error {
			if err := s.media.Delete(ctx, id); err != nil {
				s.logger.Warn("media delete failed, queueing orphan",
					slog.String("asset_id", id),
					slog.String("error", err.Error()),
				)
				s.orphan(ctx, id)
			}
			return nil
		})
	}
	g.Wait()
}

func (s *RoomService) orphanAll(ctx context.Context, assetIDs []string) {
	for _, id := range assetIDs {
		s.orphan(ctx, id)
	}
}

func (s *RoomService) orphan(ctx context.Context, assetID string) {
	if err := s.orphans.Enqueue(ctx, assetID); err != nil {
		s.logger.Error("failed to queue orphaned asset",
			slog.String("asset_id", assetID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RoomService) publish(eventType string, room *domain.Room) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.RoomEvent{
		Type:       eventType,
		RoomID:     room.ID,
		RoomNumber: room.RoomNumber,
		Status:     room.Status,
		At:         time.Now().UTC(),
	})
}

// partitionImages splits the stored image list into entries slated for
// deletion and entries to keep, preserving order of the kept ones.
func partitionImages(images, toDelete []string) (removed, kept []string) {
	doomed := make(map[string]bool, len(toDelete))
	for _, id := range toDelete {
		doomed[id] = true
	}

	kept = make([]string, 0, len(images))
	for _, id := range images {
		if doomed[id] {
			removed = append(removed, id)
		} else {
			kept = append(kept, id)
		}
	}
	return removed, kept
}

func assetIDs(assets []*domain.MediaAsset) []string {
	ids := make([]string, 0, len(assets))
	for _, asset := range assets {
		ids = append(ids, asset.ID)
	}
	return ids
}

func summarize(category *domain.Category) *domain.CategorySummary {
	return &domain.CategorySummary{
		ID:         category.ID,
		Name:       category.Name,
		PriceCents: category.PriceCents,
	}
}
