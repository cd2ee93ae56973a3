package models

import (
	"time"

	"github.com/google/uuid"
)

// ParentType names the entity a lounge is provisioned alongside.
type ParentType string

const (
	ParentCommunity ParentType = "community"
	ParentEvent     ParentType = "event"
)

// Valid reports whether p is a known parent type.
func (p ParentType) Valid() bool {
	return p == ParentCommunity || p == ParentEvent
}

// Lounge is a many-member chat surface owned by a community or event.
type Lounge struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	ParentType ParentType `db:"parent_type" json:"parent_type"`
	ParentID   string     `db:"parent_id" json:"parent_id"`
	CreatedBy  string     `db:"created_by" json:"created_by"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

// LoungeDetails adds the current member count.
type LoungeDetails struct {
	Lounge
	MemberCount int  `db:"member_count" json:"member_count"`
	Joined      bool `db:"-" json:"joined"`
}

// LoungeSummary is a lounge as listed in the caller's inbox.
type LoungeSummary struct {
	Lounge
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
}
