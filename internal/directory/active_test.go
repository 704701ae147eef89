package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"teamchat-service/internal/models"
)

func roomList(ids ...int) []models.RoomSummary {
	rooms := make([]models.RoomSummary, 0, len(ids))
	for _, id := range ids {
		rooms = append(rooms, models.RoomSummary{Room: models.Room{ID: id}})
	}
	return rooms
}

func TestResolveActiveRoomHonorsPriorityOrder(t *testing.T) {
	id, ok := ResolveActiveRoom([]int{7, 3}, roomList(3, 7, 9))

	assert.True(t, ok)
	assert.Equal(t, 7, id)
}

func TestResolveActiveRoomSkipsUnmatchedCandidates(t *testing.T) {
	id, ok := ResolveActiveRoom([]int{42, 3}, roomList(3, 9))

	assert.True(t, ok)
	assert.Equal(t, 3, id)
}

func TestResolveActiveRoomFallsBackToFirstRoom(t *testing.T) {
	id, ok := ResolveActiveRoom([]int{42}, roomList(9, 3))

	assert.True(t, ok)
	assert.Equal(t, 9, id)
}

func TestResolveActiveRoomEmptyList(t *testing.T) {
	_, ok := ResolveActiveRoom([]int{42}, nil)

	assert.False(t, ok)
}
