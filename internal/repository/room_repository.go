package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/yourorg/roomstay/internal/domain"
)

// Postgres error codes we translate into domain errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresRoomRepository implements domain.RoomRepository using PostgreSQL
type PostgresRoomRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRoomRepository creates a new room repository
func NewPostgresRoomRepository(db *sql.DB, logger *slog.Logger) *PostgresRoomRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRoomRepository{db: db, logger: logger}
}

// Create inserts a new room
func (r *PostgresRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	query := `
		INSERT INTO rooms (id, category_id, room_number, images, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		room.ID,
		room.CategoryID,
		room.RoomNumber,
		pq.Array(room.Images),
		room.Status,
	).Scan(&room.Version, &room.CreatedAt, &room.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pgUniqueViolation:
				return domain.ErrRoomNumberTaken
			case pgForeignKeyViolation:
				return domain.ErrCategoryNotFound
			}
		}
		r.logger.Error("failed to create room",
			slog.String("room_number", room.RoomNumber),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to create room: %w", err)
	}

	return nil
}

const roomSelect = `
	SELECT r.id, r.category_id, r.room_number, r.images, r.status, r.version,
	       r.created_at, r.updated_at, c.name, c.price_cents
	FROM rooms r
	JOIN categories c ON c.id = r.category_id
`

// GetByID retrieves a room with its category enrichment. Malformed ids
// resolve to not-found rather than a database error.
func (r *PostgresRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrRoomNotFound
	}

	room, err := scanRoom(r.db.QueryRowContext(ctx, roomSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return room, nil
}

// List returns all rooms with category enrichment, ordered by room number
func (r *PostgresRoomRepository) List(ctx context.Context) ([]*domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, roomSelect+` ORDER BY r.room_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	rooms := []*domain.Room{}
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			r.logger.Error("failed to scan room row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

// Update persists the room guarded by its last-read version
func (r *PostgresRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	query := `
		UPDATE rooms
		SET category_id = $1, room_number = $2, images = $3, status = $4,
		    version = version + 1, updated_at = now()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		room.CategoryID,
		room.RoomNumber,
		pq.Array(room.Images),
		room.Status,
		room.ID,
		room.Version,
	).Scan(&room.Version, &room.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r.staleWriteError(ctx, room.ID)
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case pgUniqueViolation:
				return domain.ErrRoomNumberTaken
			case pgForeignKeyViolation:
				return domain.ErrCategoryNotFound
			}
		}
		return fmt.Errorf("failed to update room: %w", err)
	}

	return nil
}

// Delete removes a room guarded by the last-read version
func (r *PostgresRoomRepository) Delete(ctx context.Context, id string, version int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM rooms WHERE id = $1 AND version = $2`, id, version)
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return r.staleWriteError(ctx, id)
	}

	r.logger.Debug("room deleted", slog.String("room_id", id))
	return nil
}

// staleWriteError distinguishes a vanished row from a concurrent write
func (r *PostgresRoomRepository) staleWriteError(ctx context.Context, id string) error {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check room existence: %w", err)
	}
	if exists {
		return domain.ErrVersionConflict
	}
	return domain.ErrRoomNotFound
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	room := &domain.Room{Category: &domain.CategorySummary{}}
	var images pq.StringArray

	err := row.Scan(
		&room.ID,
		&room.CategoryID,
		&room.RoomNumber,
		&images,
		&room.Status,
		&room.Version,
		&room.CreatedAt,
		&room.UpdatedAt,
		&room.Category.Name,
		&room.Category.PriceCents,
	)
	if err != nil {
		return nil, err
	}

	room.Images = []string(images)
	room.Category.ID = room.CategoryID
	return room, nil
}
