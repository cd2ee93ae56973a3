package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchVia records how two users connected.
type MatchVia string

const (
	MatchViaAskOut       MatchVia = "askout"
	MatchViaMutualSecret MatchVia = "mutual_secret"
	MatchViaDaily        MatchVia = "daily"
)

func (v MatchVia) Valid() bool {
	switch v {
	case MatchViaAskOut, MatchViaMutualSecret, MatchViaDaily:
		return true
	}
	return false
}

// UserRoom is the real-time room every connection of userID may register to.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Match is a private chat between exactly two users, fixed at creation.
type Match struct {
	ID        uuid.UUID `db:"id" json:"id"`
	User1ID   string    `db:"user1_id" json:"user1_id"`
	User2ID   string    `db:"user2_id" json:"user2_id"`
	Via       MatchVia  `db:"via" json:"via"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HasParticipant reports whether userID is one of the two participants.
func (m Match) HasParticipant(userID string) bool {
	return userID != "" && (m.User1ID == userID || m.User2ID == userID)
}

// Other returns the participant that is not userID.
func (m Match) Other(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// MatchSummary is a match as listed in the caller's inbox.
type MatchSummary struct {
	Match
	PartnerID     string     `json:"partner_id"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	UnreadCount   int        `json:"unread_count"`
}
