package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"teamchat-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomRepository abstracts room persistence.
type RoomRepository interface {
	CreateRoom(ctx context.Context, creatorID int, kind models.RoomKind, name string, avatarURL string, memberIDs []int) (models.Room, error)
	GetRoom(ctx context.Context, roomID int) (models.Room, error)
	ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error)
	GetMemberIDs(ctx context.Context, roomID int) ([]int, error)
	IsMember(ctx context.Context, roomID int, userID int) (bool, error)
}

// RoomRepo is a sqlx implementation of RoomRepository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// CreateRoom creates a room and its members atomically. The creator is always
// included and member ids are deduplicated.
func (r *RoomRepo) CreateRoom(ctx context.Context, creatorID int, kind models.RoomKind, name string, avatarURL string, memberIDs []int) (models.Room, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Room{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var room models.Room
	if err = tx.QueryRowxContext(ctx,
		`INSERT INTO rooms (kind, name, avatar_url, created_by) VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4)
         RETURNING id, kind, COALESCE(name, '') AS name, COALESCE(avatar_url, '') AS avatar_url, created_by, created_at`,
		kind, name, avatarURL, creatorID).
		Scan(&room.ID, &room.Kind, &room.Name, &room.AvatarURL, &room.CreatedBy, &room.CreatedAt); err != nil {
		return models.Room{}, err
	}

	memberSet := map[int]struct{}{creatorID: {}}
	for _, id := range memberIDs {
		memberSet[id] = struct{}{}
	}
	ids := make([]int, 0, len(memberSet))
	for id := range memberSet {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, err = tx.ExecContext(ctx, `INSERT INTO room_members (room_id, user_id) VALUES ($1, $2)`, room.ID, id); err != nil {
			return models.Room{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetRoom fetches a room by id.
func (r *RoomRepo) GetRoom(ctx context.Context, roomID int) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room,
		`SELECT id, kind, COALESCE(name, '') AS name, COALESCE(avatar_url, '') AS avatar_url, created_by, created_at
         FROM rooms WHERE id=$1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// ListRoomsForUser returns the user's rooms newest-created first, each with
// its member set and the latest message preview.
func (r *RoomRepo) ListRoomsForUser(ctx context.Context, userID int) ([]models.RoomSummary, error) {
	query := `SELECT r.id, r.kind, COALESCE(r.name, '') AS name, COALESCE(r.avatar_url, '') AS avatar_url,
            r.created_by, r.created_at,
            COALESCE(m.body, '') AS last_body, COALESCE(m.sender_name, '') AS last_sender
        FROM rooms r
        INNER JOIN room_members rm ON rm.room_id = r.id
        LEFT JOIN LATERAL (
            SELECT body, sender_name FROM messages
            WHERE room_id = r.id
            ORDER BY created_at DESC, id DESC
            LIMIT 1
        ) m ON TRUE
        WHERE rm.user_id=$1
        ORDER BY r.created_at DESC`
	var rooms []models.RoomSummary
	if err := r.db.SelectContext(ctx, &rooms, query, userID); err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return rooms, nil
	}

	roomIDs := make([]int, 0, len(rooms))
	for _, room := range rooms {
		roomIDs = append(roomIDs, room.ID)
	}

	rows, err := r.db.QueryxContext(ctx,
		`SELECT room_id, user_id FROM room_members WHERE room_id = ANY($1) ORDER BY user_id`,
		pq.Array(roomIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	membersByRoom := map[int][]int{}
	for rows.Next() {
		var roomID, memberID int
		if err := rows.Scan(&roomID, &memberID); err != nil {
			return nil, err
		}
		membersByRoom[roomID] = append(membersByRoom[roomID], memberID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rooms {
		rooms[i].MemberIDs = membersByRoom[rooms[i].ID]
	}
	return rooms, nil
}

// GetMemberIDs returns the member set of a room.
func (r *RoomRepo) GetMemberIDs(ctx context.Context, roomID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids, `SELECT user_id FROM room_members WHERE room_id=$1 ORDER BY user_id`, roomID)
	return ids, err
}

// IsMember checks whether a user belongs to the room.
func (r *RoomRepo) IsMember(ctx context.Context, roomID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM room_members WHERE room_id=$1 AND user_id=$2)`, roomID, userID)
	return exists, err
}
