package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

const privateMessageColumns = `id, match_id AS surface_id, sender_id, recipient_id, ciphertext, iv, image_url, delivered, seen, seen_at, created_at`

// PrivateMessageRepo is a sqlx-backed store for private match messages.
type PrivateMessageRepo struct {
	db *sqlx.DB
}

// NewPrivateMessageRepo constructs a PrivateMessageRepo.
func NewPrivateMessageRepo(db *sqlx.DB) *PrivateMessageRepo {
	return &PrivateMessageRepo{db: db}
}

// Append persists a private message and returns the stored row.
func (r *PrivateMessageRepo) Append(ctx context.Context, msg models.Message) (models.Message, error) {
	var stored models.Message
	err := r.db.GetContext(ctx, &stored, `INSERT INTO private_messages (match_id, sender_id, recipient_id, ciphertext, iv, image_url, delivered)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+privateMessageColumns,
		msg.SurfaceID, msg.SenderID, msg.RecipientID, msg.CipherText, msg.IV, msg.ImageURL, msg.Delivered)
	return stored, err
}

// ListOrdered returns the match history, oldest first.
func (r *PrivateMessageRepo) ListOrdered(ctx context.Context, matchID uuid.UUID) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+privateMessageColumns+` FROM private_messages
        WHERE match_id=$1 ORDER BY created_at ASC, id ASC`, matchID)
	return msgs, err
}

// Latest returns the most recent message or ErrMessageNotFound.
func (r *PrivateMessageRepo) Latest(ctx context.Context, matchID uuid.UUID) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+privateMessageColumns+` FROM private_messages
        WHERE match_id=$1 ORDER BY created_at DESC, id DESC LIMIT 1`, matchID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// MarkSeen flags every unseen message addressed to viewerID. Already seen rows are untouched.
func (r *PrivateMessageRepo) MarkSeen(ctx context.Context, matchID uuid.UUID, viewerID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE private_messages SET seen = TRUE, seen_at = NOW()
        WHERE match_id=$1 AND recipient_id=$2 AND seen = FALSE`, matchID, viewerID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnseen counts messages addressed to viewerID that have not been seen.
func (r *PrivateMessageRepo) CountUnseen(ctx context.Context, matchID uuid.UUID, viewerID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM private_messages
        WHERE match_id=$1 AND recipient_id=$2 AND seen = FALSE`, matchID, viewerID)
	return count, err
}

var (
	_ MessageRepository = (*LoungeMessageRepo)(nil)
	_ MessageRepository = (*PrivateMessageRepo)(nil)
	_ SeenTracker       = (*PrivateMessageRepo)(nil)
	_ LoungeRepository  = (*LoungeRepo)(nil)
	_ MatchRepository   = (*MatchRepo)(nil)
)
