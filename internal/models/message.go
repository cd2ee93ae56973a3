package models

import (
	"time"

	"github.com/google/uuid"
)

// SurfaceKind distinguishes the two chat surface variants.
type SurfaceKind string

const (
	SurfaceLounge  SurfaceKind = "lounge"
	SurfacePrivate SurfaceKind = "private"
)

// Message is a stored chat message. Text is kept only as ciphertext plus IV.
type Message struct {
	ID          int64      `db:"id" json:"id"`
	SurfaceID   uuid.UUID  `db:"surface_id" json:"surface_id"`
	SenderID    string     `db:"sender_id" json:"sender_id"`
	RecipientID *string    `db:"recipient_id" json:"recipient_id,omitempty"`
	CipherText  *string    `db:"ciphertext" json:"-"`
	IV          *string    `db:"iv" json:"-"`
	ImageURL    *string    `db:"image_url" json:"image_url,omitempty"`
	Delivered   bool       `db:"delivered" json:"delivered"`
	Seen        bool       `db:"seen" json:"seen"`
	SeenAt      *time.Time `db:"seen_at" json:"seen_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// HasText reports whether the message carries an encrypted text payload.
func (m Message) HasText() bool {
	return m.CipherText != nil && m.IV != nil
}

// MessageView is the decrypted form returned over HTTP and pushed to rooms.
// Delivered and Seen are set for private messages only, so false is explicit there.
type MessageView struct {
	ID           int64       `json:"id"`
	Kind         SurfaceKind `json:"kind"`
	SurfaceID    uuid.UUID   `json:"surface_id"`
	SenderID     string      `json:"sender_id"`
	RecipientID  *string     `json:"recipient_id,omitempty"`
	Text         *string     `json:"text"`
	ImageURL     *string     `json:"image_url,omitempty"`
	Delivered    *bool       `json:"delivered,omitempty"`
	Seen         *bool       `json:"seen,omitempty"`
	SeenAt       *time.Time  `json:"seen_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	DecryptError string      `json:"decrypt_error,omitempty"`
}
