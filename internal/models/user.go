package models

import (
	"strings"
	"time"
)

// User is a profile row consumed for display derivation and mention matching.
type User struct {
	ID          int       `db:"id" json:"id"`
	Username    string    `db:"username" json:"username"`
	DisplayName string    `db:"display_name" json:"display_name"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// FirstName returns the first whitespace-separated token of the display name.
func (u User) FirstName() string {
	fields := strings.Fields(u.DisplayName)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
