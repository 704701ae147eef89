package directory

import "teamchat-service/internal/models"

// ResolveActiveRoom picks the room a viewer should land in.
//
// Candidates arrive in priority order (navigation state, then URL parameter,
// then device storage). Each is validated against the freshly fetched room
// list; an unmatched candidate is silently skipped. With no surviving
// candidate the first room of the sorted list wins; with no rooms at all
// there is no active room.
func ResolveActiveRoom(candidates []int, rooms []models.RoomSummary) (int, bool) {
	for _, candidate := range candidates {
		for _, room := range rooms {
			if room.ID == candidate {
				return candidate, true
			}
		}
	}
	if len(rooms) > 0 {
		return rooms[0].ID, true
	}
	return 0, false
}
