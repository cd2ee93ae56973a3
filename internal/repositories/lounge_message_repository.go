package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

const loungeMessageColumns = `id, lounge_id AS surface_id, sender_id, ciphertext, iv, image_url, created_at`

// LoungeMessageRepo is a sqlx-backed store for lounge messages.
type LoungeMessageRepo struct {
	db *sqlx.DB
}

// NewLoungeMessageRepo constructs a LoungeMessageRepo.
func NewLoungeMessageRepo(db *sqlx.DB) *LoungeMessageRepo {
	return &LoungeMessageRepo{db: db}
}

// Append persists a lounge message and returns the stored row.
func (r *LoungeMessageRepo) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	var stored models.Message
	err := r.db.GetContext(ctx, &stored, `INSERT INTO lounge_messages (lounge_id, sender_id, ciphertext, iv, image_url)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+loungeMessageColumns,
		msg.SurfaceID, msg.SenderID, msg.CipherText, msg.IV, msg.ImageURL)
	return stored, err
}

// ListOrdered returns the lounge history, oldest first.
func (r *LoungeMessageRepo) ListOrdered(ctx context.Context, loungeID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+loungeMessageColumns+` FROM lounge_messages
        WHERE lounge_id=$1 ORDER BY created_at ASC, id ASC`, loungeID)
	return msgs, err
}

// Latest returns the most recent message or ErrMessageNotFound.
func (r *LoungeMessageRepo) Latest(ctx context.Context, loungeID uuid.UUID) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+loungeMessageColumns+` FROM lounge_messages
        WHERE lounge_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, loungeID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}
