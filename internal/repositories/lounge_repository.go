package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"campus-chat/internal/models"
)

// LoungeRepository abstracts lounge and lounge membership persistence.
type LoungeRepository interface {
	CreateForParent(ctx context.Context, parentType models.ParentType, parentID, name, createdBy string) (models.Lounge, error)
	GetLounge(ctx context.Context, loungeID uuid.UUID) (models.LoungeDetails, error)
	AddMember(ctx context.Context, loungeID uuid.UUID, userID string) error
	RemoveMember(ctx context.Context, loungeID uuid.UUID, userID string) error
	IsMember(ctx context.Context, loungeID uuid.UUID, userID string) (bool, error)
	ListForUser(ctx context.Context, userID string) ([]models.Lounge, error)
	DeleteForParent(ctx context.Context, parentType models.ParentType, parentID string) (uuid.UUID, error)
}

// LoungeRepo is a sqlx implementation of LoungeRepository.
type LoungeRepo struct {
	db *sqlx.DB
}

// NewLoungeRepo constructs a LoungeRepo.
func NewLoungeRepo(db *sqlx.DB) *LoungeRepo {
	return &LoungeRepo{db: db}
}

// CreateForParent provisions the lounge of a community or event. The creator is its
// first member. Calling it again for the same parent returns the existing lounge.
func (r *LoungeRepo) CreateForParent(ctx context.Context, parentType models.ParentType, parentID, name, createdBy string) (lounge models.Lounge, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Lounge{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &lounge, `INSERT INTO lounges (id, name, parent_type, parent_id, created_by) VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (parent_type, parent_id) DO UPDATE SET parent_id = EXCLUDED.parent_id
        RETURNING id, name, parent_type, parent_id, created_by, created_at`,
		uuid.New(), name, parentType, parentID, createdBy)
	if err != nil {
		return models.Lounge{}, err
	}

	if createdBy != "" {
		if _, err = tx.ExecContext(ctx, `INSERT INTO lounge_members (lounge_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, lounge.ID, createdBy); err != nil {
			return models.Lounge{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Lounge{}, err
	}
	return lounge, nil
}

// GetLounge fetches a lounge with its member count.
func (r *LoungeRepo) GetLounge(ctx context.Context, loungeID uuid.UUID) (models.LoungeDetails, error) {
	var lounge models.LoungeDetails
	err := r.db.GetContext(ctx, &lounge, `SELECT l.id, l.name, l.parent_type, l.parent_id, l.created_by, l.created_at,
        (SELECT COUNT(*) FROM lounge_members m WHERE m.lounge_id = l.id) AS member_count
        FROM lounges l WHERE l.id=$1`, loungeID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LoungeDetails{}, ErrLoungeNotFound
	}
	return lounge, err
}

// AddMember adds userID to the lounge. Re-joining is a no-op.
func (r *LoungeRepo) AddMember(ctx context.Context, loungeID uuid.UUID, userID string) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO lounge_members (lounge_id, user_id)
        SELECT id, $2 FROM lounges WHERE id=$1
        ON CONFLICT (lounge_id, user_id) DO NOTHING`, loungeID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		// either already a member or no such lounge
		var exists bool
		if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM lounges WHERE id=$1)`, loungeID); err != nil {
			return err
		}
		if !exists {
			return ErrLoungeNotFound
		}
	}
	return nil
}

// RemoveMember removes userID from the lounge. Leaving twice is a no-op.
func (r *LoungeRepo) RemoveMember(ctx context.Context, loungeID uuid.UUID, userID string) error {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM lounges WHERE id=$1)`, loungeID); err != nil {
		return err
	}
	if !exists {
		return ErrLoungeNotFound
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM lounge_members WHERE lounge_id=$1 AND user_id=$2`, loungeID, userID)
	return err
}

// IsMember checks membership. An unknown lounge yields ErrLoungeNotFound.
func (r *LoungeRepo) IsMember(ctx context.Context, loungeID uuid.UUID, userID string) (bool, error) {
	var row struct {
		Exists bool `db:"lounge_exists"`
		Member bool `db:"is_member"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT
        EXISTS(SELECT 1 FROM lounges WHERE id=$1) AS lounge_exists,
        EXISTS(SELECT 1 FROM lounge_members WHERE lounge_id=$1 AND user_id=$2) AS is_member`, loungeID, userID)
	if err != nil {
		return false, err
	}
	if !row.Exists {
		return false, ErrLoungeNotFound
	}
	return row.Member, nil
}

// ListForUser returns the lounges userID belongs to, newest first.
func (r *LoungeRepo) ListForUser(ctx context.Context, userID string) ([]models.Lounge, error) {
	var lounges []models.Lounge
	err := r.db.SelectContext(ctx, &lounges, `SELECT l.id, l.name, l.parent_type, l.parent_id, l.created_by, l.created_at
        FROM lounges l INNER JOIN lounge_members m ON m.lounge_id = l.id
        WHERE m.user_id=$1 ORDER BY l.created_at DESC`, userID)
	return lounges, err
}

// DeleteForParent removes the parent's lounge together with its members and messages
// in one transaction and returns the deleted lounge id.
func (r *LoungeRepo) DeleteForParent(ctx context.Context, parentType models.ParentType, parentID string) (loungeID uuid.UUID, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	err = tx.GetContext(ctx, &loungeID, `SELECT id FROM lounges WHERE parent_type=$1 AND parent_id=$2 FOR UPDATE`, parentType, parentID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrLoungeNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}

	for _, stmt := range []string{
		`DELETE FROM lounge_messages WHERE lounge_id=$1`,
		`DELETE FROM lounge_members WHERE lounge_id=$1`,
		`DELETE FROM lounges WHERE id=$1`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, loungeID); err != nil {
			return uuid.Nil, fmt.Errorf("cascade delete lounge %s: %w", loungeID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return uuid.Nil, err
	}
	return loungeID, nil
}
