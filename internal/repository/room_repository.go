package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/skolara/timetable-api/internal/models"
)

// RoomRepository reads bookable teaching spaces for generation input.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs repository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

const roomColumns = `id, name, type, capacity, building, available, created_at, updated_at`

// ListAvailable returns rooms that participate in generation.
func (r *RoomRepository) ListAvailable(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE available ORDER BY building, name`, roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list available rooms: %w", err)
	}
	return rooms, nil
}

// FindByID loads a room by its identifier.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf(`SELECT %s FROM rooms WHERE id = $1`, roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}
