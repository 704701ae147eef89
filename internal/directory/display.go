package directory

import (
	"strings"

	"teamchat-service/internal/models"
)

// UnknownPrivateChatName is the sentinel display for a private room whose
// counterpart cannot be resolved.
const UnknownPrivateChatName = "Unknown Private Chat"

// PlaceholderAvatarURL is the deterministic fallback avatar.
const PlaceholderAvatarURL = "/static/avatars/placeholder.png"

// Display is a room's resolved name and avatar for one viewer.
type Display struct {
	Name      string `json:"display_name"`
	AvatarURL string `json:"display_avatar"`
}

// DeriveDisplay resolves what a room is called from the viewer's seat.
//
// Group rooms always use their stored name and avatar verbatim. Private
// rooms derive from the member set minus the viewer: a single counterpart
// contributes their own name and avatar; several counterparts have their
// names joined with ", " and borrow the first counterpart's avatar; a room
// whose only member is the viewer is a self-chat and shows the viewer; a
// room with no resolvable member falls back to the sentinel.
func DeriveDisplay(room models.Room, viewer models.User, members []models.User) Display {
	if room.Kind == models.RoomKindGroup {
		return Display{Name: room.Name, AvatarURL: room.AvatarURL}
	}

	others := make([]models.User, 0, len(members))
	viewerIsMember := false
	for _, m := range members {
		if m.ID == viewer.ID {
			viewerIsMember = true
			continue
		}
		others = append(others, m)
	}

	switch {
	case len(others) == 1:
		return Display{Name: others[0].DisplayName, AvatarURL: others[0].AvatarURL}
	case len(others) > 1:
		names := make([]string, 0, len(others))
		for _, o := range others {
			names = append(names, o.DisplayName)
		}
		return Display{Name: strings.Join(names, ", "), AvatarURL: others[0].AvatarURL}
	case viewerIsMember:
		return Display{Name: viewer.DisplayName, AvatarURL: viewer.AvatarURL}
	default:
		return Display{Name: UnknownPrivateChatName, AvatarURL: PlaceholderAvatarURL}
	}
}
